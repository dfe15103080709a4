// helpers_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lingo_leitner/internal/handlers"
	"lingo_leitner/internal/middleware"
	"lingo_leitner/internal/model"
	"lingo_leitner/internal/service/mocks"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestRouter は本番と同じパス構成で、開発用認証を通したルーターを作ります。
func newTestRouter(cardSvc *mocks.CardService, reviewSvc *mocks.ReviewService, authSvc *mocks.AuthService) http.Handler {
	cardHandler := handlers.NewCardHandler(cardSvc, discardLogger)
	reviewHandler := handlers.NewReviewHandler(reviewSvc, discardLogger)
	authHandler := handlers.NewAuthHandler(authSvc, discardLogger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.DevUserContextMiddleware)
			r.Get("/me", authHandler.GetMe)
			r.Delete("/me", authHandler.DeleteMe)

			r.Post("/cards", cardHandler.PostCard)
			r.Get("/cards", cardHandler.GetCards)
			r.Get("/cards/{card_id}", cardHandler.GetCard)
			r.Delete("/cards/{card_id}", cardHandler.DeleteCard)
			r.Get("/quota", cardHandler.GetQuota)

			r.Get("/reviews", reviewHandler.GetDueCards)
			r.Post("/reviews/{card_id}/result", reviewHandler.PostReviewResult)
			r.Get("/boxes", reviewHandler.GetBoxes)
			r.Get("/boxes/{box}/cards", reviewHandler.GetBoxCards)
			r.Get("/stats", reviewHandler.GetStats)
		})
	})
	return r
}

// createRequest はJSONボディと X-User-ID ヘッダー付きのリクエストを作ります。body が string の場合はそのまま送ります。
func createRequest(t *testing.T, method, path string, body interface{}, userID *uuid.UUID) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// assertErrorCode はエラーレスポンスの code を検証します。
func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, wantCode string) {
	t.Helper()
	var errResp model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp), "body: %s", rr.Body.String())
	assert.Equal(t, wantCode, errResp.Error.Code)
	assert.NotEmpty(t, errResp.Error.Message)
}

func boolPtr(b bool) *bool {
	return &b
}
