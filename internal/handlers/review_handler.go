// internal/handlers/review_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"lingo_leitner/internal/middleware"
	"lingo_leitner/internal/model"
	"lingo_leitner/internal/service"
	"lingo_leitner/internal/webutil"

	"github.com/go-chi/chi/v5"
)

type ReviewHandler struct {
	service service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(s service.ReviewService, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		service: s,
		logger:  logger,
	}
}

// GetDueCards は今日復習すべきカードを返します。
func (h *ReviewHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetDueCards"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	cards, err := h.service.GetDueCards(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if cards == nil {
		cards = []*model.CardResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, cards, logger)
}

// PostReviewResult は復習結果を受け取り、カードを別の箱へ移します。
func (h *ReviewHandler) PostReviewResult(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostReviewResult"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	cardID, ok := parseCardID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()), slog.String("card_id", cardID.String()))

	var req model.ReviewResultRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	if err := webutil.ValidateStruct(req); err != nil {
		logger.Warn("Validation failed", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	card, err := h.service.SubmitReview(r.Context(), userID, cardID, *req.Remembered)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Review result submitted", slog.Bool("remembered", *req.Remembered), slog.Int("box", card.Box))
	webutil.RespondWithJSON(w, http.StatusOK, card, logger)
}

func (h *ReviewHandler) GetBoxes(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetBoxes"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	summaries, err := h.service.GetBoxSummaries(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, summaries, logger)
}

func (h *ReviewHandler) GetBoxCards(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetBoxCards"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	boxStr := chi.URLParam(r, "box")
	box, err := strconv.Atoi(boxStr)
	if err != nil {
		logger.Warn("Invalid box number in URL", slog.String("box_str", boxStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", "boxの形式が正しくありません。", "box", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	cards, err := h.service.GetCardsInBox(r.Context(), userID, box)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	if cards == nil {
		cards = []*model.CardResponse{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, cards, logger)
}

func (h *ReviewHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetStats"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}

	stats, err := h.service.GetStats(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, stats, logger)
}
