package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lingo_leitner/internal/model"
	"lingo_leitner/internal/repository"
	"lingo_leitner/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReviewService_GetDueCards(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig()
	userID := uuid.New()

	tests := []struct {
		name      string
		setupMock func(m *mocks.CardRepository)
		wantErr   error
		wantCount int
	}{
		{
			name: "正常系: 復習対象を上限件数まで取得",
			setupMock: func(m *mocks.CardRepository) {
				m.On("FindDue", ctx, mock.Anything, userID, testNow, cfg.App.ReviewLimit).
					Return([]*model.Card{{CardID: uuid.New(), Box: 1}, {CardID: uuid.New(), Box: 2}}, nil).Once()
			},
			wantCount: 2,
		},
		{
			name: "正常系: 復習対象が0件",
			setupMock: func(m *mocks.CardRepository) {
				m.On("FindDue", ctx, mock.Anything, userID, testNow, cfg.App.ReviewLimit).
					Return([]*model.Card{}, nil).Once()
			},
			wantCount: 0,
		},
		{
			name: "異常系: リポジトリでDBエラー",
			setupMock: func(m *mocks.CardRepository) {
				m.On("FindDue", ctx, mock.Anything, userID, testNow, cfg.App.ReviewLimit).
					Return(nil, errors.New("db error")).Once()
			},
			wantErr: model.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cardRepo := mocks.NewCardRepository(t)
			tt.setupMock(cardRepo)

			svc := NewReviewService(nil, cardRepo, cfg, WithClock(fixedClock()))
			resp, err := svc.GetDueCards(ctx, userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp, tt.wantCount)
			for _, r := range resp {
				assert.Equal(t, model.StatusDue, r.Status)
			}
		})
	}
}

func TestReviewService_SubmitReview(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig()
	cardRepo := repository.NewGormCardRepository()

	tests := []struct {
		name       string
		box        int
		remembered bool
		wantBox    int
		wantNext   time.Time
		wantStatus model.ReviewStatus
	}{
		{name: "正常系: 覚えていれば Box 1 から 2 へ", box: 1, remembered: true, wantBox: 2, wantNext: testNow.AddDate(0, 0, 2), wantStatus: model.StatusUpcoming},
		{name: "正常系: Box 5 で覚えていても 5 のまま", box: 5, remembered: true, wantBox: 5, wantNext: testNow.AddDate(0, 0, 14), wantStatus: model.StatusUpcoming},
		{name: "正常系: 忘れていれば Box 3 から 2 へ", box: 3, remembered: false, wantBox: 2, wantNext: testNow.AddDate(0, 0, 2), wantStatus: model.StatusUpcoming},
		{name: "正常系: Box 1 で忘れても 1 のまま", box: 1, remembered: false, wantBox: 1, wantNext: testNow.AddDate(0, 0, 1), wantStatus: model.StatusSoon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupServiceTestDB(t)
			user := createServiceTestUser(t, db, nil)
			card := &model.Card{
				CardID: uuid.New(), UserID: user.UserID, Word: "w", Meaning: "m",
				Box: tt.box, LastReviewedAt: testNow.AddDate(0, 0, -7),
			}
			require.NoError(t, cardRepo.Create(ctx, db, card))

			svc := NewReviewService(db, cardRepo, cfg, WithClock(fixedClock()))
			resp, err := svc.SubmitReview(ctx, user.UserID, card.CardID, tt.remembered)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBox, resp.Box)
			require.NotNil(t, resp.NextReviewDate)
			assert.True(t, tt.wantNext.Equal(*resp.NextReviewDate))
			assert.True(t, testNow.Equal(resp.LastReviewedAt))
			assert.Equal(t, tt.wantStatus, resp.Status)

			stored, err := cardRepo.FindByID(ctx, db, user.UserID, card.CardID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBox, stored.Box)
			assert.True(t, tt.wantNext.Equal(*stored.NextReviewDate))
		})
	}

	t.Run("異常系: 他のユーザーのカードは見つからない", func(t *testing.T) {
		db := setupServiceTestDB(t)
		owner := createServiceTestUser(t, db, nil)
		other := createServiceTestUser(t, db, nil)
		card := &model.Card{CardID: uuid.New(), UserID: owner.UserID, Word: "w", Meaning: "m", Box: 2, LastReviewedAt: testNow}
		require.NoError(t, cardRepo.Create(ctx, db, card))

		svc := NewReviewService(db, cardRepo, cfg, WithClock(fixedClock()))
		_, err := svc.SubmitReview(ctx, other.UserID, card.CardID, true)
		assert.ErrorIs(t, err, model.ErrNotFound)

		stored, err := cardRepo.FindByID(ctx, db, owner.UserID, card.CardID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Box)
	})

	t.Run("異常系: 不正な箱番号のカードは更新しない", func(t *testing.T) {
		db := setupServiceTestDB(t)
		userID := uuid.New()
		cardID := uuid.New()
		mockRepo := mocks.NewCardRepository(t)
		mockRepo.On("FindByID", ctx, mock.Anything, userID, cardID).
			Return(&model.Card{CardID: cardID, UserID: userID, Box: 7}, nil).Once()

		svc := NewReviewService(db, mockRepo, cfg, WithClock(fixedClock()))
		_, err := svc.SubmitReview(ctx, userID, cardID, true)
		assert.ErrorIs(t, err, model.ErrInvalidBox)
		mockRepo.AssertNotCalled(t, "UpdateBox", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("異常系: 更新時にカードが消えていた", func(t *testing.T) {
		db := setupServiceTestDB(t)
		userID := uuid.New()
		cardID := uuid.New()
		mockRepo := mocks.NewCardRepository(t)
		mockRepo.On("FindByID", ctx, mock.Anything, userID, cardID).
			Return(&model.Card{CardID: cardID, UserID: userID, Box: 2}, nil).Once()
		mockRepo.On("UpdateBox", ctx, mock.Anything, userID, cardID, 3, testNow, mock.AnythingOfType("*time.Time")).
			Return(model.ErrNotFound).Once()

		svc := NewReviewService(db, mockRepo, cfg, WithClock(fixedClock()))
		_, err := svc.SubmitReview(ctx, userID, cardID, true)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestReviewService_FullProgression(t *testing.T) {
	ctx := context.Background()
	db := setupServiceTestDB(t)
	user := createServiceTestUser(t, db, nil)
	cardRepo := repository.NewGormCardRepository()

	day0 := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	card := &model.Card{CardID: uuid.New(), UserID: user.UserID, Word: "w", Meaning: "m", Box: 1, LastReviewedAt: day0}
	require.NoError(t, cardRepo.Create(ctx, db, card))

	now := day0
	svc := NewReviewService(db, cardRepo, newTestConfig(), WithClock(func() time.Time { return now }))

	// 復習日ごとに正解し続けると D+13 で Box 5 に到達する
	for _, offset := range []int{0, 2, 6, 13} {
		if offset > 0 {
			now = day0.AddDate(0, 0, offset-1)
			due, err := svc.CountDue(ctx, user.UserID)
			require.NoError(t, err)
			require.Equal(t, 0, due, "day before offset %d", offset)
		}

		now = day0.AddDate(0, 0, offset)
		due, err := svc.CountDue(ctx, user.UserID)
		require.NoError(t, err)
		require.Equal(t, 1, due, "day offset %d", offset)

		_, err = svc.SubmitReview(ctx, user.UserID, card.CardID, true)
		require.NoError(t, err)
	}

	stored, err := cardRepo.FindByID(ctx, db, user.UserID, card.CardID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Box)
	assert.True(t, day0.AddDate(0, 0, 27).Equal(*stored.NextReviewDate))

	stats, err := svc.GetStats(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalWords)
	assert.Equal(t, 1, stats.MasteredWords)
	assert.Equal(t, 0, stats.ReviewDueWords)
}

func TestReviewService_GetCardsInBox(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("正常系: 指定した箱のカードを返す", func(t *testing.T) {
		cardRepo := mocks.NewCardRepository(t)
		cardRepo.On("FindByBox", ctx, mock.Anything, userID, 3).
			Return([]*model.Card{{CardID: uuid.New(), Box: 3}}, nil).Once()

		svc := NewReviewService(nil, cardRepo, newTestConfig(), WithClock(fixedClock()))
		resp, err := svc.GetCardsInBox(ctx, userID, 3)
		require.NoError(t, err)
		require.Len(t, resp, 1)
		assert.Equal(t, 3, resp[0].Box)
	})

	for _, box := range []int{0, 6, -1} {
		t.Run("異常系: 範囲外の箱番号", func(t *testing.T) {
			svc := NewReviewService(nil, mocks.NewCardRepository(t), newTestConfig())
			_, err := svc.GetCardsInBox(ctx, userID, box)
			assert.ErrorIs(t, err, model.ErrInvalidInput)
		})
	}
}

func TestReviewService_GetBoxSummaries(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	future := testNow.AddDate(0, 0, 5)

	cardRepo := mocks.NewCardRepository(t)
	cardRepo.On("FindByUser", ctx, mock.Anything, userID).Return([]*model.Card{
		{Box: 1},
		{Box: 1, NextReviewDate: &future},
		{Box: 4, NextReviewDate: &future},
	}, nil).Once()

	svc := NewReviewService(nil, cardRepo, newTestConfig(), WithClock(fixedClock()))
	summaries, err := svc.GetBoxSummaries(ctx, userID)
	require.NoError(t, err)
	require.Len(t, summaries, 5)
	assert.Equal(t, model.BoxSummary{Box: 1, CardCount: 2, DueCount: 1}, summaries[0])
	assert.Equal(t, model.BoxSummary{Box: 4, CardCount: 1, DueCount: 0}, summaries[3])
	assert.Equal(t, 0, summaries[4].CardCount)
}

func TestReviewService_GetStats_StorageError(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	cardRepo := mocks.NewCardRepository(t)
	cardRepo.On("FindByUser", ctx, mock.Anything, userID).Return(nil, errors.New("timeout")).Once()

	svc := NewReviewService(nil, cardRepo, newTestConfig())
	_, err := svc.GetStats(ctx, userID)
	assert.ErrorIs(t, err, model.ErrStorage)
}
