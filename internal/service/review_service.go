//go:generate mockery --name ReviewService --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"errors"
	"time"

	"lingo_leitner/internal/config"
	"lingo_leitner/internal/leitner"
	"lingo_leitner/internal/metrics"
	"lingo_leitner/internal/middleware"
	"lingo_leitner/internal/model"
	"lingo_leitner/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewService interface {
	GetDueCards(ctx context.Context, userID uuid.UUID) ([]*model.CardResponse, error)
	CountDue(ctx context.Context, userID uuid.UUID) (int, error)
	// SubmitReview は覚えていれば1つ上、忘れていれば1つ下の箱へカードを移します。
	SubmitReview(ctx context.Context, userID, cardID uuid.UUID, remembered bool) (*model.CardResponse, error)
	GetCardsInBox(ctx context.Context, userID uuid.UUID, box int) ([]*model.CardResponse, error)
	GetBoxSummaries(ctx context.Context, userID uuid.UUID) ([]model.BoxSummary, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*model.UserStats, error)
}

type reviewService struct {
	db       *gorm.DB
	cardRepo repository.CardRepository
	cfg      *config.Config
	now      Clock
}

func NewReviewService(db *gorm.DB, cardRepo repository.CardRepository, cfg *config.Config, opts ...Option) ReviewService {
	o := buildOptions(opts)
	return &reviewService{
		db:       db,
		cardRepo: cardRepo,
		cfg:      cfg,
		now:      o.now,
	}
}

func (s *reviewService) GetDueCards(ctx context.Context, userID uuid.UUID) ([]*model.CardResponse, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String())
	now := s.now()

	cards, err := s.cardRepo.FindDue(ctx, s.db, userID, now, s.cfg.App.ReviewLimit)
	if err != nil {
		logger.Error("Failed to find due cards from repository", "error", err)
		return nil, storageError("復習カードの取得に失敗しました。", err)
	}

	logger.Info("Successfully retrieved due cards", "count", len(cards))
	return toCardResponses(cards, now), nil
}

func (s *reviewService) CountDue(ctx context.Context, userID uuid.UUID) (int, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String())

	cards, err := s.cardRepo.FindDue(ctx, s.db, userID, s.now(), 0)
	if err != nil {
		logger.Error("Failed to count due cards", "error", err)
		return 0, storageError("復習カード数の取得に失敗しました。", err)
	}
	return len(cards), nil
}

func (s *reviewService) SubmitReview(ctx context.Context, userID, cardID uuid.UUID, remembered bool) (*model.CardResponse, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String(), "card_id", cardID.String())
	now := s.now()

	var updated model.Card
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card, err := s.cardRepo.FindByID(ctx, tx, userID, cardID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return cardNotFoundError()
			}
			logger.Error("Error finding card in transaction", "error", err)
			return storageError("カードの取得に失敗しました。", err)
		}

		next, err := leitner.Apply(*card, remembered, now)
		if err != nil {
			logger.Error("Card has an invalid box", "error", err, "box", card.Box)
			return model.NewAppError("INVALID_BOX", "カードのデータが不正です。", "", err)
		}

		// 別の端末で削除された場合はここで ErrNotFound になる
		if err := s.cardRepo.UpdateBox(ctx, tx, userID, cardID, next.Box, next.LastReviewedAt, next.NextReviewDate); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return cardNotFoundError()
			}
			logger.Error("Error updating card box", "error", err)
			return storageError("復習結果の保存に失敗しました。", err)
		}

		logger.Info("Review recorded",
			"remembered", remembered,
			"from_box", card.Box,
			"to_box", next.Box,
		)
		updated = next
		return nil
	})
	if err != nil {
		var appErr *model.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		logger.Error("Transaction failed for SubmitReview", "error", err)
		return nil, storageError("復習結果の保存に失敗しました。", err)
	}

	metrics.ReviewsTotal.WithLabelValues(metrics.ReviewOutcome(remembered)).Inc()
	return &model.CardResponse{Card: updated, Status: leitner.Status(updated, now)}, nil
}

func (s *reviewService) GetCardsInBox(ctx context.Context, userID uuid.UUID, box int) ([]*model.CardResponse, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String(), "box", box)

	if !leitner.ValidBox(box) {
		return nil, model.NewAppError("INVALID_BOX", "箱の番号は1から5で指定してください。", "box", model.ErrInvalidInput)
	}

	cards, err := s.cardRepo.FindByBox(ctx, s.db, userID, box)
	if err != nil {
		logger.Error("Failed to find cards in box", "error", err)
		return nil, storageError("カードの取得に失敗しました。", err)
	}
	return toCardResponses(cards, s.now()), nil
}

func (s *reviewService) GetBoxSummaries(ctx context.Context, userID uuid.UUID) ([]model.BoxSummary, error) {
	cards, now, err := s.allCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	return leitner.Summarize(cards, now), nil
}

func (s *reviewService) GetStats(ctx context.Context, userID uuid.UUID) (*model.UserStats, error) {
	cards, now, err := s.allCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := leitner.Stats(cards, now)
	return &stats, nil
}

func (s *reviewService) allCards(ctx context.Context, userID uuid.UUID) ([]*model.Card, time.Time, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String())

	cards, err := s.cardRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		logger.Error("Failed to load cards", "error", err)
		return nil, time.Time{}, storageError("カードの取得に失敗しました。", err)
	}
	return cards, s.now(), nil
}
