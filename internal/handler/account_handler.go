package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carebot/userapi/internal/account"
	"github.com/carebot/userapi/internal/middleware"
	"github.com/carebot/userapi/internal/model"
)

// AccountServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	Create(ctx context.Context, in account.CreateInput) (*model.Account, error)
	CheckEmail(ctx context.Context, email string) error
	List(ctx context.Context) ([]*model.Account, error)
	Get(ctx context.Context, userID string) (*model.Account, error)
	Update(ctx context.Context, userID string, in account.UpdateInput) (*model.Account, error)
	Delete(ctx context.Context, requesterID, targetUserID string) error
}

// AccountHandler はアカウント管理のHTTPハンドラー。
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// createAccountRequest はアカウント作成リクエストのボディ。
type createAccountRequest struct {
	Email     string             `json:"email"`
	Password  string             `json:"password"`
	Role      string             `json:"role"`
	UserName  string             `json:"user_name"`
	BirthDate *account.BirthDate `json:"birth_date"`
	Gender    string             `json:"gender"`
	Address   string             `json:"address"`
}

// updateAccountRequest はアカウント更新リクエストのボディ。
// 指定されたフィールドのみ更新する。
type updateAccountRequest struct {
	Email     *string            `json:"email"`
	Role      *string            `json:"role"`
	UserName  *string            `json:"user_name"`
	BirthDate *account.BirthDate `json:"birth_date"`
	Gender    *string            `json:"gender"`
	Address   *string            `json:"address"`
}

// checkEmailRequest はメールアドレス確認リクエストのボディ。
type checkEmailRequest struct {
	Email string `json:"email"`
}

// accountResponse はアカウント情報のAPIレスポンス。パスワードは含めない。
type accountResponse struct {
	UserID    string  `json:"user_id"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	UserName  string  `json:"user_name,omitempty"`
	BirthDate *string `json:"birth_date"`
	Gender    string  `json:"gender"`
	Address   string  `json:"address,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// toAccountResponse はドメインモデルをAPIレスポンスに変換する。
func toAccountResponse(a *model.Account) *accountResponse {
	resp := &accountResponse{
		UserID:    a.ID,
		Email:     a.Email,
		Role:      string(a.Role),
		UserName:  a.UserName,
		Gender:    string(a.Gender),
		Address:   a.Address,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if a.BirthDate != nil {
		s := a.BirthDate.Format("2006-01-02")
		resp.BirthDate = &s
	}
	return resp
}

// toAccountResponses はアカウント一覧をAPIレスポンスに変換する。
func toAccountResponses(accounts []*model.Account) []*accountResponse {
	resps := make([]*accountResponse, 0, len(accounts))
	for _, a := range accounts {
		resps = append(resps, toAccountResponse(a))
	}
	return resps
}

// Create はアカウント作成を処理する。
// POST /accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" {
		writeError(w, model.NewNoDataError("Email is required", []string{"body", "email"}).
			WithInput(accountInput(req)))
		return
	}
	if req.Password == "" {
		writeError(w, model.NewNoDataError("Password is required", []string{"body", "password"}).
			WithInput(accountInput(req)))
		return
	}

	created, err := h.service.Create(r.Context(), account.CreateInput{
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		UserName:  req.UserName,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
		Address:   req.Address,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusCreated, "Account created successfully", toAccountResponse(created))
}

// CheckEmail はメールアドレスの登録可否を確認する。
// POST /accounts/check-email
func (h *AccountHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req checkEmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" {
		writeError(w, model.NewNoDataError("Email is required", []string{"body", "email"}))
		return
	}

	if err := h.service.CheckEmail(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Email is available")
}

// List は全アカウント一覧を返す。
// GET /accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusOK, "Accounts retrieved successfully", toAccountResponses(accounts))
}

// Get は指定アカウントの詳細を返す。
// GET /accounts/{user_id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	found, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusOK, "Account retrieved successfully", toAccountResponse(found))
}

// Update はアカウント情報の部分更新を処理する。
// PATCH /accounts/{user_id}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var req updateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), userID, account.UpdateInput{
		Email:     req.Email,
		Role:      req.Role,
		UserName:  req.UserName,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
		Address:   req.Address,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusOK, "Account updated successfully", toAccountResponse(updated))
}

// Delete はアカウント削除を処理する。自分自身またはSYSTEMロールのみ。
// DELETE /accounts/{user_id}
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewUnauthorizedError("Not logged in"))
		return
	}

	userID := chi.URLParam(r, "user_id")

	if err := h.service.Delete(r.Context(), requesterID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Account deleted successfully")
}

// accountInput はアカウント作成リクエストをエラーレスポンスのinput用に変換する。
// パスワードは常にマスクする。
func accountInput(req createAccountRequest) map[string]any {
	return map[string]any{
		"email":     req.Email,
		"password":  passwordMask,
		"role":      req.Role,
		"user_name": req.UserName,
	}
}
