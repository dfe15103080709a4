package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"lingo_leitner/internal/model"
	repomocks "lingo_leitner/internal/repository/mocks"
	servicemocks "lingo_leitner/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
	err   error
}

func (n *recordingNotifier) NotifyDue(_ context.Context, userID uuid.UUID, dueCount int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = map[uuid.UUID]int{}
	}
	n.calls[userID] = dueCount
	return n.err
}

func TestScheduler_RunOnce(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	alice := &model.User{UserID: uuid.New()}
	bob := &model.User{UserID: uuid.New()}
	carol := &model.User{UserID: uuid.New()}

	t.Run("正常系: 復習対象があるユーザーだけ通知する", func(t *testing.T) {
		userRepo := repomocks.NewUserRepository(t)
		reviewSvc := servicemocks.NewReviewService(t)
		notifier := &recordingNotifier{}

		userRepo.On("FindAll", ctx, mock.Anything).Return([]*model.User{alice, bob, carol}, nil).Once()
		reviewSvc.On("CountDue", ctx, alice.UserID).Return(3, nil).Once()
		reviewSvc.On("CountDue", ctx, bob.UserID).Return(0, nil).Once()
		reviewSvc.On("CountDue", ctx, carol.UserID).Return(0, errors.New("db down")).Once()

		s := NewScheduler(nil, userRepo, reviewSvc, notifier, logger)
		notified, err := s.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, notified)
		assert.Equal(t, map[uuid.UUID]int{alice.UserID: 3}, notifier.calls)
	})

	t.Run("異常系: ユーザー一覧の取得に失敗", func(t *testing.T) {
		userRepo := repomocks.NewUserRepository(t)
		userRepo.On("FindAll", ctx, mock.Anything).Return(nil, errors.New("db down")).Once()

		s := NewScheduler(nil, userRepo, servicemocks.NewReviewService(t), &recordingNotifier{}, logger)
		_, err := s.RunOnce(ctx)
		assert.Error(t, err)
	})

	t.Run("異常系: 通知に失敗したユーザーは数えない", func(t *testing.T) {
		userRepo := repomocks.NewUserRepository(t)
		reviewSvc := servicemocks.NewReviewService(t)
		userRepo.On("FindAll", ctx, mock.Anything).Return([]*model.User{alice}, nil).Once()
		reviewSvc.On("CountDue", ctx, alice.UserID).Return(2, nil).Once()

		s := NewScheduler(nil, userRepo, reviewSvc, &recordingNotifier{err: errors.New("smtp down")}, logger)
		notified, err := s.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, notified)
	})
}

func TestScheduler_StartInvalidCron(t *testing.T) {
	s := NewScheduler(nil, repomocks.NewUserRepository(t), servicemocks.NewReviewService(t), LogNotifier{}, nil)
	err := s.Start("not a cron")
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	assert.NoError(t, n.NotifyDue(context.Background(), uuid.New(), 5))
}
