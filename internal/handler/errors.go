package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/portella/internal/middleware"
	"github.com/hitoshi/portella/internal/model"
)

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIErrorはカテゴリからステータスを導出し、コンテキスト期限超過はタイムアウト、
// それ以外は内部サーバーエラーとして扱う。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteAPIError(w, apiErr)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		middleware.WriteAPIError(w, model.NewRequestTimeoutError())
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// writeInvalidRequestBody はリクエストボディの解析失敗に対する400レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST_BODY",
		Message:  "リクエストボディの形式が正しくありません。",
		Category: "validation",
		Action:   "リクエストの形式を確認してください。",
	})
}
