// internal/handlers/card_handler_test.go
package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"lingo_leitner/internal/model"
	"lingo_leitner/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCardHandler_PostCard(t *testing.T) {
	userID := uuid.New()
	validReq := model.PostCardRequest{Word: "serendipity", Meaning: "思いがけない発見"}
	created := &model.Card{
		CardID:         uuid.New(),
		UserID:         userID,
		Word:           validReq.Word,
		Meaning:        validReq.Meaning,
		Box:            1,
		LastReviewedAt: time.Now(),
	}
	quotaErr := model.NewAppError("QUOTA_EXCEEDED", "本日追加できる単語数の上限(10語)に達しました。", "", model.ErrQuotaExceeded)

	tests := []struct {
		name       string
		userID     *uuid.UUID
		body       interface{}
		setupMock  func(m *mocks.CardService)
		wantStatus int
		wantCode   string
	}{
		{
			name:   "正常系: カードが作成される",
			userID: &userID,
			body:   validReq,
			setupMock: func(m *mocks.CardService) {
				m.On("TryAddWord", mock.Anything, userID, &validReq).Return(created, nil).Once()
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "異常系: X-User-ID なし",
			userID:     nil,
			body:       validReq,
			setupMock:  func(m *mocks.CardService) {},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "異常系: 意味が未入力",
			userID:     &userID,
			body:       model.PostCardRequest{Word: "word only"},
			setupMock:  func(m *mocks.CardService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "異常系: 難易度が範囲外",
			userID:     &userID,
			body:       `{"word": "serendipity", "meaning": "思いがけない発見", "difficulty": 4}`,
			setupMock:  func(m *mocks.CardService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "異常系: JSONとして不正",
			userID:     &userID,
			body:       `{"word": "broken"`,
			setupMock:  func(m *mocks.CardService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST_BODY",
		},
		{
			name:   "異常系: 1日の上限に達している",
			userID: &userID,
			body:   validReq,
			setupMock: func(m *mocks.CardService) {
				m.On("TryAddWord", mock.Anything, userID, &validReq).Return(nil, quotaErr).Once()
			},
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "QUOTA_EXCEEDED",
		},
		{
			name:   "異常系: ストレージ障害",
			userID: &userID,
			body:   validReq,
			setupMock: func(m *mocks.CardService) {
				appErr := model.NewAppError("STORAGE_ERROR", "単語の追加に失敗しました。", "", fmt.Errorf("%w: %w", model.ErrStorage, errors.New("db down")))
				m.On("TryAddWord", mock.Anything, userID, &validReq).Return(nil, appErr).Once()
			},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "STORAGE_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cardSvc := mocks.NewCardService(t)
			tc.setupMock(cardSvc)
			router := newTestRouter(cardSvc, mocks.NewReviewService(t), mocks.NewAuthService(t))

			rr := serve(router, createRequest(t, http.MethodPost, "/api/v1/cards", tc.body, tc.userID))
			assert.Equal(t, tc.wantStatus, rr.Code)

			if tc.wantCode != "" {
				assertErrorCode(t, rr, tc.wantCode)
				return
			}
			var got model.Card
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, created.CardID, got.CardID)
			assert.Equal(t, 1, got.Box)
			assert.Nil(t, got.NextReviewDate)
		})
	}
}

func TestCardHandler_GetCards(t *testing.T) {
	userID := uuid.New()

	t.Run("正常系: 0件でも空配列を返す", func(t *testing.T) {
		cardSvc := mocks.NewCardService(t)
		cardSvc.On("ListCards", mock.Anything, userID).Return(nil, nil).Once()
		router := newTestRouter(cardSvc, mocks.NewReviewService(t), mocks.NewAuthService(t))

		rr := serve(router, createRequest(t, http.MethodGet, "/api/v1/cards", nil, &userID))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})
}

func TestCardHandler_GetCard(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	tests := []struct {
		name       string
		path       string
		setupMock  func(m *mocks.CardService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "正常系: 状態付きで取得",
			path: "/api/v1/cards/" + cardID.String(),
			setupMock: func(m *mocks.CardService) {
				m.On("GetCard", mock.Anything, userID, cardID).
					Return(&model.CardResponse{Card: model.Card{CardID: cardID, Box: 2}, Status: model.StatusSoon}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "異常系: card_id がUUIDでない",
			path:       "/api/v1/cards/not-a-uuid",
			setupMock:  func(m *mocks.CardService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_URL_PARAM",
		},
		{
			name: "異常系: 見つからない",
			path: "/api/v1/cards/" + cardID.String(),
			setupMock: func(m *mocks.CardService) {
				m.On("GetCard", mock.Anything, userID, cardID).
					Return(nil, model.NewAppError("CARD_NOT_FOUND", "カードが見つかりません。", "", model.ErrNotFound)).Once()
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "CARD_NOT_FOUND",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cardSvc := mocks.NewCardService(t)
			tc.setupMock(cardSvc)
			router := newTestRouter(cardSvc, mocks.NewReviewService(t), mocks.NewAuthService(t))

			rr := serve(router, createRequest(t, http.MethodGet, tc.path, nil, &userID))
			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantCode != "" {
				assertErrorCode(t, rr, tc.wantCode)
				return
			}
			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, "soon", got["status"])
			assert.Equal(t, float64(2), got["box"])
		})
	}
}

func TestCardHandler_DeleteCard(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()

	cardSvc := mocks.NewCardService(t)
	cardSvc.On("DeleteCard", mock.Anything, userID, cardID).Return(nil).Once()
	router := newTestRouter(cardSvc, mocks.NewReviewService(t), mocks.NewAuthService(t))

	rr := serve(router, createRequest(t, http.MethodDelete, "/api/v1/cards/"+cardID.String(), nil, &userID))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestCardHandler_GetQuota(t *testing.T) {
	userID := uuid.New()

	cardSvc := mocks.NewCardService(t)
	cardSvc.On("GetQuotaStatus", mock.Anything, userID).Return(&model.QuotaStatus{
		DailyWordCount: 7,
		Limit:          10,
		Remaining:      3,
		State:          model.QuotaWithinLimit,
		Day:            "2025-01-10",
	}, nil).Once()
	router := newTestRouter(cardSvc, mocks.NewReviewService(t), mocks.NewAuthService(t))

	rr := serve(router, createRequest(t, http.MethodGet, "/api/v1/quota", nil, &userID))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"daily_word_count":7,"limit":10,"remaining":3,"is_premium":false,"state":"within_limit","day":"2025-01-10"}`, rr.Body.String())
}
