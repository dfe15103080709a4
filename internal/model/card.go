// internal/model/card.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Card は単語カード1枚を表します。Box は 1(新規) から 5(習得済み) の範囲です。
type Card struct {
	CardID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"card_id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_cards_user_box,priority:1" json:"-"`
	Word           string     `gorm:"not null" json:"word"`
	Meaning        string     `gorm:"not null" json:"meaning"`
	Example        *string    `json:"example,omitempty"`
	Difficulty     Difficulty `gorm:"not null;default:1" json:"difficulty"`
	Box            int        `gorm:"not null;default:1;index:idx_cards_user_box,priority:2" json:"box"`
	LastReviewedAt time.Time  `gorm:"not null" json:"last_reviewed_at"`
	NextReviewDate *time.Time `gorm:"index" json:"next_review_date,omitempty"` // nil は未復習 (すぐに復習対象)
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Card) TableName() string {
	return "cards"
}

// Difficulty は追加時に選ぶ単語の難易度です。復習間隔には影響しません。
type Difficulty int

const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHard   Difficulty = 3
)

func (d Difficulty) Valid() bool {
	return d >= DifficultyEasy && d <= DifficultyHard
}

// ReviewStatus はカードの復習状態です。保存はせず、都度算出します。
type ReviewStatus string

const (
	StatusDue      ReviewStatus = "due"
	StatusSoon     ReviewStatus = "soon"
	StatusUpcoming ReviewStatus = "upcoming"
)

// カード作成リクエストDTO
type PostCardRequest struct {
	Word       string  `json:"word" validate:"required,max=100"`
	Meaning    string  `json:"meaning" validate:"required,max=500"`
	Example    *string `json:"example,omitempty" validate:"omitempty,max=1000"`
	Difficulty *int    `json:"difficulty,omitempty" validate:"omitempty,oneof=1 2 3"` // 省略時は easy
}
