//go:generate mockery --name QuotaStore --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"lingo_leitner/internal/middleware"
	"lingo_leitner/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unlimited を limit に渡すと上限チェックをせずにカウントだけ進めます (プレミアム用)。
const Unlimited = 0

// QuotaStore はユーザーごとの1日の単語追加数を保持します。
// IncrementQuota は「読み取り・上限チェック・加算」を1つの原子的な操作として行います。
type QuotaStore interface {
	// GetQuota はユーザーが存在しない場合 ErrNotFound を返します。
	GetQuota(ctx context.Context, userID uuid.UUID) (*model.DailyQuota, error)
	// ResetQuota は記録された日付が today と異なる場合だけ、カウントを 0 に戻します。
	ResetQuota(ctx context.Context, userID uuid.UUID, today model.DayKey) error
	// IncrementQuota は today のカウントが limit 未満なら1増やして true を返します。
	// 上限に達していれば何も書かずに false を返します。
	IncrementQuota(ctx context.Context, userID uuid.UUID, today model.DayKey, limit int) (bool, error)
}

type gormQuotaStore struct {
	db *gorm.DB
}

// NewGormQuotaStore は users テーブルの列でカウンタを管理する QuotaStore を返します。
func NewGormQuotaStore(db *gorm.DB) QuotaStore {
	return &gormQuotaStore{db: db}
}

func (s *gormQuotaStore) GetQuota(ctx context.Context, userID uuid.UUID) (*model.DailyQuota, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User

	result := s.db.WithContext(ctx).
		Select("user_id", "daily_word_count", "last_word_add_day", "is_premium").
		Where("user_id = ?", userID).
		Take(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error reading quota in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormQuotaStore.GetQuota: %w", result.Error)
	}

	return &model.DailyQuota{
		UserID:         user.UserID,
		DailyWordCount: user.DailyWordCount,
		LastWordAddDay: user.LastWordAddDay,
		IsPremium:      user.IsPremium,
	}, nil
}

func (s *gormQuotaStore) ResetQuota(ctx context.Context, userID uuid.UUID, today model.DayKey) error {
	logger := middleware.GetLogger(ctx)

	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ? AND last_word_add_day <> ?", userID, today).
		Updates(map[string]interface{}{
			"daily_word_count":  0,
			"last_word_add_day": today,
		})
	if result.Error != nil {
		logger.Error("Error resetting quota in DB", "error", result.Error, "user_id", userID.String())
		return fmt.Errorf("gormQuotaStore.ResetQuota: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		logger.Info("Daily quota reset", "user_id", userID.String(), "day", today.String())
	}
	return nil
}

func (s *gormQuotaStore) IncrementQuota(ctx context.Context, userID uuid.UUID, today model.DayKey, limit int) (bool, error) {
	logger := middleware.GetLogger(ctx)
	var incremented bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 条件付き UPDATE 1文で判定と加算を行う。日付が変わっていれば 1 から数え直す
		query := tx.Model(&model.User{}).Where("user_id = ?", userID)
		if limit != Unlimited {
			query = query.Where("is_premium = ? OR last_word_add_day <> ? OR daily_word_count < ?", true, today, limit)
		}
		result := query.Updates(map[string]interface{}{
			"daily_word_count":  gorm.Expr("CASE WHEN last_word_add_day = ? THEN daily_word_count + 1 ELSE 1 END", today),
			"last_word_add_day": today,
		})
		if result.Error != nil {
			return fmt.Errorf("gormQuotaStore.IncrementQuota: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			incremented = true
			return nil
		}

		// 0件更新は「上限到達」か「ユーザーなし」
		var count int64
		if err := tx.Model(&model.User{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("gormQuotaStore.IncrementQuota: %w", err)
		}
		if count == 0 {
			return model.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logger.Error("Error incrementing quota in DB", "error", err, "user_id", userID.String())
		}
		return false, err
	}
	return incremented, nil
}
