package service

import (
	"fmt"
	"time"

	"lingo_leitner/internal/leitner"
	"lingo_leitner/internal/model"
)

// Clock は現在時刻を返します。テストでは固定の時刻を注入します。
type Clock func() time.Time

// Option はサービスの任意設定です。
type Option func(*options)

type options struct {
	now Clock
}

func WithClock(c Clock) Option {
	return func(o *options) {
		o.now = c
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// storageError は永続化層の失敗を ErrStorage としてラップします。元のエラーも errors.Is で辿れます。
func storageError(message string, err error) *model.AppError {
	return model.NewAppError("STORAGE_ERROR", message, "", fmt.Errorf("%w: %w", model.ErrStorage, err))
}

func userNotFoundError() *model.AppError {
	return model.NewAppError("USER_NOT_FOUND", "ユーザーが見つかりません。再度サインインしてください。", "", model.ErrUserNotFound)
}

func cardNotFoundError() *model.AppError {
	return model.NewAppError("CARD_NOT_FOUND", "カードが見つかりません。リストを更新してください。", "", model.ErrNotFound)
}

func toCardResponses(cards []*model.Card, now time.Time) []*model.CardResponse {
	responses := make([]*model.CardResponse, 0, len(cards))
	for _, c := range cards {
		if c == nil {
			continue
		}
		responses = append(responses, &model.CardResponse{Card: *c, Status: leitner.Status(*c, now)})
	}
	return responses
}
