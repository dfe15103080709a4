package model

import (
	"fmt"
	"time"
)

// DayKey は暦日を YYYYMMDD 形式の整数で表します。0 は「記録なし」です。
type DayKey int

// DayKeyOf は t を loc のタイムゾーンで見た暦日を返します。loc が nil の場合は UTC を使います。
func DayKeyOf(t time.Time, loc *time.Location) DayKey {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return DayKey(y*10000 + int(m)*100 + d)
}

func (k DayKey) IsZero() bool {
	return k == 0
}

func (k DayKey) String() string {
	if k.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", int(k)/10000, int(k)/100%100, int(k)%100)
}
