// Package reminder は定期的に復習が必要なカード数を集計し、Notifier に渡します。
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lingo_leitner/internal/metrics"
	"lingo_leitner/internal/middleware"
	"lingo_leitner/internal/repository"
	"lingo_leitner/internal/service"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifier は復習が必要なユーザーへの通知手段です。
type Notifier interface {
	NotifyDue(ctx context.Context, userID uuid.UUID, dueCount int) error
}

// LogNotifier は通知内容を構造化ログに出すだけの Notifier です。
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) NotifyDue(ctx context.Context, userID uuid.UUID, dueCount int) error {
	logger := n.Logger
	if logger == nil {
		logger = middleware.GetLogger(ctx)
	}
	logger.Info("Cards due for review", "user_id", userID.String(), "due_count", dueCount)
	return nil
}

type Scheduler struct {
	scheduler     *gocron.Scheduler
	db            *gorm.DB
	userRepo      repository.UserRepository
	reviewService service.ReviewService
	notifier      Notifier
	logger        *slog.Logger
}

func NewScheduler(db *gorm.DB, userRepo repository.UserRepository, reviewService service.ReviewService, notifier Notifier, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:     s,
		db:            db,
		userRepo:      userRepo,
		reviewService: reviewService,
		notifier:      notifier,
		logger:        logger.With("component", "reminder"),
	}
}

// Start は cron 式で集計ジョブを登録し、非同期に実行を開始します。
func (s *Scheduler) Start(cronExpr string) error {
	_, err := s.scheduler.Cron(cronExpr).Do(func() {
		ctx := middleware.WithLogger(context.Background(), s.logger)
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Reminder run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("reminder.Start: invalid cron %q: %w", cronExpr, err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("Reminder scheduler started", "cron", cronExpr)
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Reminder scheduler stopped")
}

// RunOnce は全ユーザーの復習対象数を数え、1枚以上あるユーザーに通知します。通知したユーザー数を返します。
// 個別ユーザーの失敗はログに残して次のユーザーへ進みます。
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	users, err := s.userRepo.FindAll(ctx, s.db)
	if err != nil {
		return 0, fmt.Errorf("reminder.RunOnce: %w", err)
	}

	notified := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return notified, err
		}
		count, err := s.reviewService.CountDue(ctx, u.UserID)
		if err != nil {
			s.logger.Warn("Failed to count due cards", "error", err, "user_id", u.UserID.String())
			continue
		}
		if count == 0 {
			continue
		}
		if err := s.notifier.NotifyDue(ctx, u.UserID, count); err != nil {
			s.logger.Warn("Failed to notify user", "error", err, "user_id", u.UserID.String())
			continue
		}
		metrics.RemindersSentTotal.Inc()
		notified++
	}

	s.logger.Info("Reminder run finished", "users", len(users), "notified", notified)
	return notified, nil
}
