// Package leitner はライトナー方式の箱移動と復習日の計算を行います。
// すべて純粋関数で、ストレージや時計には依存しません。
package leitner

import (
	"fmt"
	"time"

	"lingo_leitner/internal/model"
)

const (
	MinBox = 1
	MaxBox = 5
)

// reviewIntervals[box-1] が箱ごとの復習間隔(日)
var reviewIntervals = [MaxBox]int{1, 2, 4, 7, 14}

func ValidBox(box int) bool {
	return box >= MinBox && box <= MaxBox
}

// IntervalDays は箱に対応する復習間隔を日数で返します。
func IntervalDays(box int) (int, error) {
	if !ValidBox(box) {
		return 0, fmt.Errorf("%w: %d", model.ErrInvalidBox, box)
	}
	return reviewIntervals[box-1], nil
}

// NextReviewDate は from から箱の間隔日数だけ進めた日時を返します。範囲外の箱は丸めずにエラーにします。
func NextReviewDate(box int, from time.Time) (time.Time, error) {
	days, err := IntervalDays(box)
	if err != nil {
		return time.Time{}, err
	}
	return from.AddDate(0, 0, days), nil
}

// Promote は覚えていたカードを1つ上の箱へ移します。Box 5 はそのままで、日付だけ更新します。
func Promote(card model.Card, now time.Time) (model.Card, error) {
	if !ValidBox(card.Box) {
		return card, fmt.Errorf("%w: %d", model.ErrInvalidBox, card.Box)
	}
	return moveTo(card, min(card.Box+1, MaxBox), now)
}

// Demote は忘れていたカードを1つ下の箱へ戻します。Box 1 はそのままです。
func Demote(card model.Card, now time.Time) (model.Card, error) {
	if !ValidBox(card.Box) {
		return card, fmt.Errorf("%w: %d", model.ErrInvalidBox, card.Box)
	}
	return moveTo(card, max(card.Box-1, MinBox), now)
}

// Apply は復習結果に応じて Promote か Demote を呼び分けます。
func Apply(card model.Card, remembered bool, now time.Time) (model.Card, error) {
	if remembered {
		return Promote(card, now)
	}
	return Demote(card, now)
}

func moveTo(card model.Card, box int, now time.Time) (model.Card, error) {
	next, err := NextReviewDate(box, now)
	if err != nil {
		return card, err
	}
	card.Box = box
	card.LastReviewedAt = now
	card.NextReviewDate = &next
	return card, nil
}
