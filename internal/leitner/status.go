package leitner

import (
	"time"

	"lingo_leitner/internal/model"
)

// SoonThreshold 以内に復習日が来るカードは soon
const SoonThreshold = 24 * time.Hour

// NeedsReview は復習日が未設定、または now が復習日以降なら true を返します。
func NeedsReview(card model.Card, now time.Time) bool {
	return card.NextReviewDate == nil || !now.Before(*card.NextReviewDate)
}

func Status(card model.Card, now time.Time) model.ReviewStatus {
	if NeedsReview(card, now) {
		return model.StatusDue
	}
	if card.NextReviewDate.Sub(now) <= SoonThreshold {
		return model.StatusSoon
	}
	return model.StatusUpcoming
}

// Summarize は5つの箱それぞれの枚数と復習対象数を集計します。範囲外の箱のカードは数えません。
func Summarize(cards []*model.Card, now time.Time) []model.BoxSummary {
	summaries := make([]model.BoxSummary, MaxBox)
	for i := range summaries {
		summaries[i].Box = i + 1
	}
	for _, c := range cards {
		if c == nil || !ValidBox(c.Box) {
			continue
		}
		s := &summaries[c.Box-1]
		s.CardCount++
		if NeedsReview(*c, now) {
			s.DueCount++
		}
	}
	return summaries
}

// Stats は総数・習得済み(Box 5)・復習対象の枚数を返します。
func Stats(cards []*model.Card, now time.Time) model.UserStats {
	var stats model.UserStats
	for _, c := range cards {
		if c == nil {
			continue
		}
		stats.TotalWords++
		if c.Box == MaxBox {
			stats.MasteredWords++
		}
		if NeedsReview(*c, now) {
			stats.ReviewDueWords++
		}
	}
	return stats
}
