package model

import "net/http"

// エラー種別。レスポンスボディのtypeフィールドにそのまま使用する。
const (
	ErrTypeNoData          = "no data"
	ErrTypeInvalidValue    = "invalid value"
	ErrTypeUnauthorized    = "unauthorized"
	ErrTypeCanNotAccess    = "can not access"
	ErrTypeNotFound        = "not found"
	ErrTypeAlreadyExists   = "already exists"
	ErrTypeTooManyRequests = "too many requests"
	ErrTypeServerError     = "server error"
)

// APIError は統一エラーフォーマットを表す。
// Typeからレスポンスのステータスコードが決定される。
// Inputには原因となったリクエスト内容を含めるが、パスワードは
// 常に"<PASSWORD>"へ置き換えてから設定すること。
type APIError struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Loc     []string       `json:"loc,omitempty"`
	Input   map[string]any `json:"input,omitempty"`
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return e.Type + ": " + e.Message
}

// HTTPStatus はエラー種別に対応するHTTPステータスコードを返す。
func (e *APIError) HTTPStatus() int {
	switch e.Type {
	case ErrTypeNoData:
		return http.StatusUnprocessableEntity
	case ErrTypeInvalidValue:
		return http.StatusBadRequest
	case ErrTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrTypeCanNotAccess:
		return http.StatusForbidden
	case ErrTypeNotFound:
		return http.StatusNotFound
	case ErrTypeAlreadyExists:
		return http.StatusConflict
	case ErrTypeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WithInput はInputを設定した新しいAPIErrorを返す。
// サービス層が生成したエラーにハンドラーがリクエスト内容を付加する際に使用する。
func (e *APIError) WithInput(input map[string]any) *APIError {
	clone := *e
	clone.Input = input
	return &clone
}

// NewNoDataError は必須項目欠落エラーを生成する。
// locには欠落したフィールドの位置（例: ["body", "email"]）を指定する。
func NewNoDataError(message string, loc []string) *APIError {
	return &APIError{
		Type:    ErrTypeNoData,
		Message: message,
		Loc:     loc,
	}
}

// NewInvalidValueError は不正な値エラーを生成する。
func NewInvalidValueError(message string) *APIError {
	return &APIError{
		Type:    ErrTypeInvalidValue,
		Message: message,
	}
}

// NewUnauthorizedError は認証失敗エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Type:    ErrTypeUnauthorized,
		Message: message,
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Type:    ErrTypeCanNotAccess,
		Message: "You do not have permission",
	}
}

// NewNotFoundError は対象未存在エラーを生成する。
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrTypeNotFound,
		Message: message,
	}
}

// NewConflictError は一意制約違反エラーを生成する。
func NewConflictError(message string) *APIError {
	return &APIError{
		Type:    ErrTypeAlreadyExists,
		Message: message,
	}
}

// NewServerError は内部エラーを生成する。
// 永続化層の失敗はこのエラーに変換され、生のドライバエラーは
// クライアントへ露出しない。
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrTypeServerError,
		Message: message,
	}
}
