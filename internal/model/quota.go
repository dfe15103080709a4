package model

import "github.com/google/uuid"

// DailyWordLimit は無料ユーザーが1日に追加できる単語数の既定値です。
const DailyWordLimit = 10

// DailyQuota はユーザーごとの単語追加カウンタです。
type DailyQuota struct {
	UserID         uuid.UUID
	DailyWordCount int
	LastWordAddDay DayKey
	IsPremium      bool
}

// CountOn は today 時点で有効な追加数を返します。日付が変わっていれば 0 です。
func (q DailyQuota) CountOn(today DayKey) int {
	if q.LastWordAddDay != today {
		return 0
	}
	return q.DailyWordCount
}

// CanAdd は today にもう1語追加できるかを返します。
func (q DailyQuota) CanAdd(today DayKey, limit int) bool {
	return q.IsPremium || q.CountOn(today) < limit
}

type QuotaState string

const (
	QuotaWithinLimit  QuotaState = "within_limit"
	QuotaLimitReached QuotaState = "limit_reached"
)

// QuotaStatus は GET /quota のレスポンスです。
type QuotaStatus struct {
	DailyWordCount int        `json:"daily_word_count"`
	Limit          int        `json:"limit"`
	Remaining      int        `json:"remaining"`
	IsPremium      bool       `json:"is_premium"`
	State          QuotaState `json:"state"`
	Day            string     `json:"day"`
}

// StatusOn は today 時点のクォータ状態を組み立てます。プレミアムの場合 Remaining は -1 です。
func (q DailyQuota) StatusOn(today DayKey, limit int) *QuotaStatus {
	count := q.CountOn(today)
	status := &QuotaStatus{
		DailyWordCount: count,
		Limit:          limit,
		IsPremium:      q.IsPremium,
		State:          QuotaWithinLimit,
		Day:            today.String(),
	}
	if q.IsPremium {
		status.Remaining = -1
		return status
	}
	status.Remaining = max(limit-count, 0)
	if count >= limit {
		status.State = QuotaLimitReached
	}
	return status
}
