// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/carebot/userapi/internal/model"
)

// passwordMask はエラーレスポンスのinputに含めるパスワードの置換値。
// 平文パスワードはレスポンスにもログにも残さない。
const passwordMask = "<PASSWORD>"

// messageResponse は成功レスポンスの統一フォーマット。
// resultは操作結果のデータ。メッセージのみの応答ではnilにする。
type messageResponse struct {
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeMessage はメッセージのみの成功レスポンスを書き込む。
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeResult はメッセージと結果データを含む成功レスポンスを書き込む。
func writeResult(w http.ResponseWriter, status int, message string, result any) {
	writeJSON(w, status, messageResponse{Message: message, Result: result})
}

// writeError は統一エラーフォーマットのレスポンスを書き込む。
// ステータスコードはエラー種別から決定される。
func writeError(w http.ResponseWriter, apiErr *model.APIError) {
	writeJSON(w, apiErr.HTTPStatus(), apiErr)
}

// handleServiceError はサービス層から返されたエラーをHTTPレスポンスに変換する。
// APIError以外（永続化層の失敗等）はログに記録し、詳細を伏せた500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeError(w, apiErr)
		return
	}

	slog.Error("unexpected service error", slog.String("error", err.Error()))
	writeError(w, model.NewServerError("Internal server error"))
}

// decodeBody はリクエストボディをJSONとしてデコードする。
// 解析失敗時はInvalidValueエラーを書き込んでfalseを返す。
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, model.NewInvalidValueError("Invalid request body"))
		return false
	}
	return true
}
