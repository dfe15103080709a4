//go:generate mockery --name CardService --output ./mocks --outpkg mocks --case=underscore
// internal/service/card_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

type CardService interface {
	// TryAddWord は1日の上限を確認してからカードを Box 1 に追加します。
	// カード作成後に ctx がキャンセルされた場合、カードは残したまま ctx のエラーを返します。
	TryAddWord(ctx context.Context, userID uuid.UUID, req *model.PostCardRequest) (*model.Card, error)
	GetCard(ctx context.Context, userID, cardID uuid.UUID) (*model.CardResponse, error)
	ListCards(ctx context.Context, userID uuid.UUID) ([]*model.CardResponse, error)
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error
	GetQuotaStatus(ctx context.Context, userID uuid.UUID) (*model.QuotaStatus, error)
}

type cardService struct {
	db         *gorm.DB
	cardRepo   repository.CardRepository
	quotaStore repository.QuotaStore
	limit      int
	loc        *time.Location
	now        Clock
}

func NewCardService(db *gorm.DB, cardRepo repository.CardRepository, quotaStore repository.QuotaStore, cfg *config.Config, opts ...Option) CardService {
	o := buildOptions(opts)
	limit := cfg.App.DailyWordLimit
	if limit <= 0 {
		limit = model.DailyWordLimit
	}
	return &cardService{
		db:         db,
		cardRepo:   cardRepo,
		quotaStore: quotaStore,
		limit:      limit,
		loc:        cfg.QuotaLocation(),
		now:        o.now,
	}
}

func (s *cardService) TryAddWord(ctx context.Context, userID uuid.UUID, req *model.PostCardRequest) (*model.Card, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String())

	word := strings.TrimSpace(req.Word)
	meaning := strings.TrimSpace(req.Meaning)
	if word == "" {
		return nil, model.NewAppError("VALIDATION_ERROR", "単語は必須項目です。", "word", model.ErrInvalidInput)
	}
	if meaning == "" {
		return nil, model.NewAppError("VALIDATION_ERROR", "意味は必須項目です。", "meaning", model.ErrInvalidInput)
	}
	var example *string
	if req.Example != nil {
		if e := strings.TrimSpace(*req.Example); e != "" {
			example = &e
		}
	}
	difficulty := model.DifficultyEasy
	if req.Difficulty != nil {
		difficulty = model.Difficulty(*req.Difficulty)
		if !difficulty.Valid() {
			return nil, model.NewAppError("VALIDATION_ERROR", "難易度は[1 2 3]のいずれかを指定してください。", "difficulty", model.ErrInvalidInput)
		}
	}

	now := s.now()
	today := model.DayKeyOf(now, s.loc)

	// 1. 現在のカウンタを読む
	quota, err := s.quotaStore.GetQuota(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Quota owner not found")
			return nil, userNotFoundError()
		}
		logger.Error("Failed to read daily quota", "error", err)
		return nil, storageError("単語の追加状況を取得できませんでした。", err)
	}

	// 2. 日付が変わっていればリセット
	if quota.LastWordAddDay != today {
		if err := s.quotaStore.ResetQuota(ctx, userID, today); err != nil {
			logger.Error("Failed to reset daily quota", "error", err, "day", today.String())
			return nil, storageError("単語の追加状況を更新できませんでした。", err)
		}
		quota.DailyWordCount = 0
		quota.LastWordAddDay = today
	}

	// 3. 上限チェック
	if !quota.CanAdd(today, s.limit) {
		metrics.QuotaExceededTotal.Inc()
		logger.Info("Daily word limit reached", "count", quota.DailyWordCount, "limit", s.limit)
		return nil, quotaExceededError(s.limit)
	}

	// 4. カードを作成し、カウンタを原子的に加算する
	card := &model.Card{
		CardID:         uuid.New(),
		UserID:         userID,
		Word:           word,
		Meaning:        meaning,
		Example:        example,
		Difficulty:     difficulty,
		Box:            leitner.MinBox,
		LastReviewedAt: now,
	}
	if err := s.cardRepo.Create(ctx, s.db, card); err != nil {
		logger.Error("Failed to create card", "error", err)
		return nil, storageError("単語の追加に失敗しました。", err)
	}

	limit := s.limit
	if quota.IsPremium {
		limit = repository.Unlimited
	}
	incremented, err := s.quotaStore.IncrementQuota(ctx, userID, today, limit)
	if err != nil {
		// カードは残し、カウントの取りこぼしを許容する
		metrics.QuotaIncrementFailuresTotal.Inc()
		metrics.CardsCreatedTotal.Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Warn("Request cancelled after card was created; quota not incremented", "error", err, "card_id", card.CardID.String())
			return card, ctxErr
		}
		logger.Warn("Card created but quota increment failed", "error", err, "card_id", card.CardID.String())
		return card, nil
	}
	if !incremented {
		// 同時に追加された別のリクエストが最後の枠を使った。キャンセル済みでも削除は完了させる
		if delErr := s.cardRepo.Delete(context.WithoutCancel(ctx), s.db, userID, card.CardID); delErr != nil {
			logger.Error("Failed to roll back card after losing quota race", "error", delErr, "card_id", card.CardID.String())
		}
		metrics.QuotaExceededTotal.Inc()
		logger.Info("Daily word limit reached by a concurrent request", "limit", s.limit)
		return nil, quotaExceededError(s.limit)
	}

	metrics.CardsCreatedTotal.Inc()
	logger.Info("Card added", "card_id", card.CardID.String(), "day", today.String())
	return card, nil
}

func quotaExceededError(limit int) *model.AppError {
	return model.NewAppError(
		"QUOTA_EXCEEDED",
		fmt.Sprintf("本日追加できる単語数の上限(%d語)に達しました。プレミアムにアップグレードすると無制限に追加できます。", limit),
		"",
		model.ErrQuotaExceeded,
	)
}

func (s *cardService) GetCard(ctx context.Context, userID, cardID uuid.UUID) (*model.CardResponse, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String(), "card_id", cardID.String())

	card, err := s.cardRepo.FindByID(ctx, s.db, userID, cardID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, cardNotFoundError()
		}
		logger.Error("Failed to get card", "error", err)
		return nil, storageError("カードの取得に失敗しました。", err)
	}
	return &model.CardResponse{Card: *card, Status: leitner.Status(*card, s.now())}, nil
}

func (s *cardService) ListCards(ctx context.Context, userID uuid.UUID) ([]*model.CardResponse, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String())

	cards, err := s.cardRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		logger.Error("Failed to list cards", "error", err)
		return nil, storageError("カード一覧の取得に失敗しました。", err)
	}
	return toCardResponses(cards, s.now()), nil
}

func (s *cardService) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String(), "card_id", cardID.String())

	if err := s.cardRepo.Delete(ctx, s.db, userID, cardID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return cardNotFoundError()
		}
		logger.Error("Failed to delete card", "error", err)
		return storageError("カードの削除に失敗しました。", err)
	}
	logger.Info("Card deleted")
	return nil
}

func (s *cardService) GetQuotaStatus(ctx context.Context, userID uuid.UUID) (*model.QuotaStatus, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID.String())

	quota, err := s.quotaStore.GetQuota(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, userNotFoundError()
		}
		logger.Error("Failed to read daily quota", "error", err)
		return nil, storageError("単語の追加状況を取得できませんでした。", err)
	}
	return quota.StatusOn(model.DayKeyOf(s.now(), s.loc), s.limit), nil
}
