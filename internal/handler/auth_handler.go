package handler

import (
	"context"
	"net/http"

	"github.com/carebot/userapi/internal/middleware"
	"github.com/carebot/userapi/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*model.Session, *model.Account, error)
	Logout(ctx context.Context, sessionID string) error
	ChangePassword(ctx context.Context, requesterID, targetUserID, currentPassword, newPassword string) error
}

// LoginRecorder はログイン試行の成否を記録するインターフェース。
// metrics.Collectorが実装する。nilの場合は記録しない。
type LoginRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
	SameSite     http.SameSite
}

// ParseSameSite は設定値("none"|"lax"|"strict")をhttp.SameSiteに変換する。
// 未知の値はSameSiteNoneModeにフォールバックする。
func ParseSameSite(s string) http.SameSite {
	switch s {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteNoneMode
	}
}

// AuthHandler はログイン・ログアウト・パスワード変更のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig

	// Metrics はログイン試行の記録先。未設定でもよい。
	Metrics LoginRecorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResult はログイン成功レスポンスのresult。
type loginResult struct {
	SessionID string           `json:"session_id"`
	UserData  *accountResponse `json:"user_data"`
}

// changePasswordRequest はパスワード変更リクエストのボディ。
type changePasswordRequest struct {
	UserID          string `json:"user_id"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login はログインを処理し、セッションCookieを設定する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" {
		writeError(w, model.NewNoDataError("Email is required", []string{"body", "email"}).
			WithInput(loginInput(req)))
		return
	}
	if req.Password == "" {
		writeError(w, model.NewNoDataError("Password is required", []string{"body", "password"}).
			WithInput(loginInput(req)))
		return
	}

	session, account, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.RecordLoginFailure()
		}
		handleServiceError(w, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordLoginSuccess()
	}

	h.setSessionCookie(w, session.ID)

	writeResult(w, http.StatusOK, "Login successful", loginResult{
		SessionID: session.ID,
		UserData:  toAccountResponse(account),
	})
}

// Logout はセッションを破棄し、Cookieをクリアする。
// Cookieがない・セッションが既に存在しない場合も成功として応答する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			handleServiceError(w, logoutErr)
			return
		}
	}

	h.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logout successful")
}

// ChangePassword はパスワード変更を処理する。
// PATCH /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewUnauthorizedError("Not logged in"))
		return
	}

	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// user_id未指定は自分自身のパスワード変更
	targetUserID := req.UserID
	if targetUserID == "" {
		targetUserID = requesterID
	}

	if req.NewPassword == "" {
		writeError(w, model.NewNoDataError("New password is required", []string{"body", "new_password"}))
		return
	}

	if err := h.service.ChangePassword(r.Context(), requesterID, targetUserID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Password changed successfully")
}

// setSessionCookie はセッションIDをHTTP Only Cookieとして設定する。
// MaxAgeは設定しない（ブラウザセッションCookie）。失効はサーバー側で管理する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: h.config.SameSite,
	})
}

// clearSessionCookie はセッションCookieを削除する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: h.config.SameSite,
	})
}

// loginInput はログインリクエストをエラーレスポンスのinput用に変換する。
// パスワードは常にマスクする。
func loginInput(req loginRequest) map[string]any {
	return map[string]any{
		"email":    req.Email,
		"password": passwordMask,
	}
}
