// internal/model/review.go
package model

// CardResponse は復習状態付きのカード情報です。
type CardResponse struct {
	Card
	Status ReviewStatus `json:"status"`
}

// ReviewResultRequest は復習結果送信リクエストのDTO
type ReviewResultRequest struct {
	Remembered *bool `json:"remembered" validate:"required"`
}

// BoxSummary は箱ごとのカード数と復習が必要な枚数です。
type BoxSummary struct {
	Box       int `json:"box"`
	CardCount int `json:"card_count"`
	DueCount  int `json:"due_count"`
}

// UserStats はプロフィール画面向けの集計値
type UserStats struct {
	TotalWords     int `json:"total_words"`
	MasteredWords  int `json:"mastered_words"` // Box 5 の枚数
	ReviewDueWords int `json:"review_due_words"`
}
