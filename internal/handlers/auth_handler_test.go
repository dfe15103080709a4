// internal/handlers/auth_handler_test.go
package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"lingo_leitner/internal/model"
	"lingo_leitner/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	validReq := model.RegisterRequest{Name: "Hanako", Email: "hanako@example.com", Password: "password123"}

	tests := []struct {
		name       string
		body       interface{}
		setupMock  func(m *mocks.AuthService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "正常系: 登録成功",
			body: validReq,
			setupMock: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, &validReq).
					Return(&model.User{UserID: uuid.New(), Name: "Hanako", Email: "hanako@example.com", PasswordHash: "secret-hash"}, nil).Once()
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "異常系: メールアドレスの形式が不正",
			body:       model.RegisterRequest{Name: "Hanako", Email: "not-an-email", Password: "password123"},
			setupMock:  func(m *mocks.AuthService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "異常系: パスワードが短い",
			body:       model.RegisterRequest{Name: "Hanako", Email: "hanako@example.com", Password: "short"},
			setupMock:  func(m *mocks.AuthService) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name: "異常系: 登録済み",
			body: validReq,
			setupMock: func(m *mocks.AuthService) {
				m.On("Register", mock.Anything, &validReq).
					Return(nil, model.NewAppError("DUPLICATE_EMAIL", "このメールアドレスは既に使用されています。", "email", model.ErrConflict)).Once()
			},
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE_EMAIL",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			authSvc := mocks.NewAuthService(t)
			tc.setupMock(authSvc)
			router := newTestRouter(mocks.NewCardService(t), mocks.NewReviewService(t), authSvc)

			rr := serve(router, createRequest(t, http.MethodPost, "/api/v1/auth/register", tc.body, nil))
			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantCode != "" {
				assertErrorCode(t, rr, tc.wantCode)
				return
			}
			assert.NotContains(t, rr.Body.String(), "secret-hash")
			var got model.UserResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, "hanako@example.com", got.Email)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	req := model.LoginRequest{Email: "hanako@example.com", Password: "password123"}

	t.Run("正常系: トークンを返す", func(t *testing.T) {
		authSvc := mocks.NewAuthService(t)
		authSvc.On("Login", mock.Anything, &req).Return(&model.LoginResponse{AccessToken: "token"}, nil).Once()
		router := newTestRouter(mocks.NewCardService(t), mocks.NewReviewService(t), authSvc)

		rr := serve(router, createRequest(t, http.MethodPost, "/api/v1/auth/login", req, nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"access_token":"token"}`, rr.Body.String())
	})

	t.Run("異常系: 認証失敗", func(t *testing.T) {
		authSvc := mocks.NewAuthService(t)
		authSvc.On("Login", mock.Anything, &req).
			Return(nil, model.NewAppError("AUTHENTICATION_FAILED", "メールアドレスまたはパスワードが正しくありません。", "", model.ErrUserNotFound)).Once()
		router := newTestRouter(mocks.NewCardService(t), mocks.NewReviewService(t), authSvc)

		rr := serve(router, createRequest(t, http.MethodPost, "/api/v1/auth/login", req, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assertErrorCode(t, rr, "AUTHENTICATION_FAILED")
	})
}

func TestAuthHandler_Me(t *testing.T) {
	userID := uuid.New()

	authSvc := mocks.NewAuthService(t)
	authSvc.On("GetUser", mock.Anything, userID).Return(&model.User{UserID: userID, Name: "Hanako", IsPremium: true}, nil).Once()
	authSvc.On("DeleteAccount", mock.Anything, userID).Return(nil).Once()
	router := newTestRouter(mocks.NewCardService(t), mocks.NewReviewService(t), authSvc)

	rr := serve(router, createRequest(t, http.MethodGet, "/api/v1/me", nil, &userID))
	assert.Equal(t, http.StatusOK, rr.Code)
	var got model.UserResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.True(t, got.IsPremium)

	rr = serve(router, createRequest(t, http.MethodDelete, "/api/v1/me", nil, &userID))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
