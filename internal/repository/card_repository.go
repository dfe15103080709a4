//go:generate mockery --name CardRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lingo_leitner/internal/middleware"
	"lingo_leitner/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CardRepository はユーザーごとのカード(箱)の永続化を担います。
type CardRepository interface {
	Create(ctx context.Context, tx *gorm.DB, card *model.Card) error
	FindByID(ctx context.Context, db *gorm.DB, userID, cardID uuid.UUID) (*model.Card, error)
	FindByBox(ctx context.Context, db *gorm.DB, userID uuid.UUID, box int) ([]*model.Card, error)
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Card, error)
	FindDue(ctx context.Context, db *gorm.DB, userID uuid.UUID, now time.Time, limit int) ([]*model.Card, error)
	UpdateBox(ctx context.Context, tx *gorm.DB, userID, cardID uuid.UUID, box int, lastReviewedAt time.Time, nextReviewDate *time.Time) error
	Delete(ctx context.Context, tx *gorm.DB, userID, cardID uuid.UUID) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type gormCardRepository struct{}

func NewGormCardRepository() CardRepository {
	return &gormCardRepository{}
}

func (r *gormCardRepository) Create(ctx context.Context, tx *gorm.DB, card *model.Card) error {
	logger := middleware.GetLogger(ctx)
	card.LastReviewedAt = card.LastReviewedAt.UTC()
	card.NextReviewDate = utcPtr(card.NextReviewDate)
	result := tx.WithContext(ctx).Create(card)
	if result.Error != nil {
		logger.Error("Error creating card in DB",
			"error", result.Error,
			"user_id", card.UserID.String(),
			"word", card.Word,
		)
		return fmt.Errorf("gormCardRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormCardRepository) FindByID(ctx context.Context, db *gorm.DB, userID, cardID uuid.UUID) (*model.Card, error) {
	logger := middleware.GetLogger(ctx)
	var card model.Card
	result := db.WithContext(ctx).Where("user_id = ? AND card_id = ?", userID, cardID).First(&card)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding card by ID in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"card_id", cardID.String(),
		)
		return nil, fmt.Errorf("gormCardRepository.FindByID: %w", result.Error)
	}
	return &card, nil
}

func (r *gormCardRepository) FindByBox(ctx context.Context, db *gorm.DB, userID uuid.UUID, box int) ([]*model.Card, error) {
	logger := middleware.GetLogger(ctx)
	var cards []*model.Card
	result := db.WithContext(ctx).
		Where("user_id = ? AND box = ?", userID, box).
		Order("created_at DESC").
		Find(&cards)
	if result.Error != nil {
		logger.Error("Error finding cards by box in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"box", box,
		)
		return nil, fmt.Errorf("gormCardRepository.FindByBox: %w", result.Error)
	}
	return cards, nil
}

func (r *gormCardRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Card, error) {
	logger := middleware.GetLogger(ctx)
	var cards []*model.Card
	result := db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&cards)
	if result.Error != nil {
		logger.Error("Error finding cards by user in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormCardRepository.FindByUser: %w", result.Error)
	}
	return cards, nil
}

// FindDue は復習日が未設定か now 以前のカードを、箱の若い順・復習日の古い順に最大 limit 件返します。
func (r *gormCardRepository) FindDue(ctx context.Context, db *gorm.DB, userID uuid.UUID, now time.Time, limit int) ([]*model.Card, error) {
	logger := middleware.GetLogger(ctx)
	var cards []*model.Card
	query := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("next_review_date IS NULL OR next_review_date <= ?", now.UTC()).
		Order("box ASC").
		Order("next_review_date ASC").
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&cards)
	if result.Error != nil {
		logger.Error("Error finding due cards in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return nil, fmt.Errorf("gormCardRepository.FindDue: %w", result.Error)
	}
	return cards, nil
}

// UpdateBox は箱と復習日時を書き換えます。対象がない(削除済み)場合は ErrNotFound です。
func (r *gormCardRepository) UpdateBox(ctx context.Context, tx *gorm.DB, userID, cardID uuid.UUID, box int, lastReviewedAt time.Time, nextReviewDate *time.Time) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Model(&model.Card{}).
		Where("user_id = ? AND card_id = ?", userID, cardID).
		Updates(map[string]interface{}{
			"box":              box,
			"last_reviewed_at": lastReviewedAt.UTC(),
			"next_review_date": utcPtr(nextReviewDate),
		})
	if result.Error != nil {
		logger.Error("Error updating card box in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"card_id", cardID.String(),
			"box", box,
		)
		return fmt.Errorf("gormCardRepository.UpdateBox: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormCardRepository) Delete(ctx context.Context, tx *gorm.DB, userID, cardID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("user_id = ? AND card_id = ?", userID, cardID).Delete(&model.Card{})
	if result.Error != nil {
		logger.Error("Error deleting card in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"card_id", cardID.String(),
		)
		return fmt.Errorf("gormCardRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormCardRepository) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Card{})
	if result.Error != nil {
		logger.Error("Error deleting cards by user in DB",
			"error", result.Error,
			"user_id", userID.String(),
		)
		return 0, fmt.Errorf("gormCardRepository.DeleteByUser: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// SQLite は日時を文字列で比較するため、保存と検索の時刻はすべて UTC に揃える
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
