package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carebot/userapi/internal/family"
	"github.com/carebot/userapi/internal/middleware"
	"github.com/carebot/userapi/internal/model"
)

// FamilyServiceInterface はファミリーハンドラーが必要とするサービスインターフェース。
type FamilyServiceInterface interface {
	Create(ctx context.Context, mainUserID, familyName string) (*model.Family, error)
	List(ctx context.Context) ([]*model.Family, error)
	Get(ctx context.Context, familyID string) (*model.Family, error)
	FindByMainUser(ctx context.Context, mainUserID string) (*model.Family, error)
	Update(ctx context.Context, familyID string, in family.UpdateInput) (*model.Family, error)
	Delete(ctx context.Context, requesterID, familyID string) error
	AddMember(ctx context.Context, familyID, userID, nickname string) (*model.Member, error)
	ListMembers(ctx context.Context, familyID string) ([]*model.Member, error)
	UpdateMemberNickname(ctx context.Context, memberID, nickname string) (*model.Member, error)
	RemoveMember(ctx context.Context, memberID string) error
}

// FamilyHandler はファミリー・構成員管理のHTTPハンドラー。
type FamilyHandler struct {
	service FamilyServiceInterface
}

// NewFamilyHandler はFamilyHandlerを生成する。
func NewFamilyHandler(service FamilyServiceInterface) *FamilyHandler {
	return &FamilyHandler{service: service}
}

// createFamilyRequest はファミリー作成リクエストのボディ。
type createFamilyRequest struct {
	MainUser   string `json:"main_user"`
	FamilyName string `json:"family_name"`
}

// updateFamilyRequest はファミリー更新リクエストのボディ。
type updateFamilyRequest struct {
	MainUser   *string `json:"main_user"`
	FamilyName *string `json:"family_name"`
}

// addMemberRequest は構成員追加リクエストのボディ。
type addMemberRequest struct {
	FamilyID string `json:"family_id"`
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// updateMemberRequest は構成員更新リクエストのボディ。
type updateMemberRequest struct {
	Nickname string `json:"nickname"`
}

// familyResponse はファミリー情報のAPIレスポンス。
type familyResponse struct {
	FamilyID   string `json:"family_id"`
	MainUser   string `json:"main_user"`
	FamilyName string `json:"family_name,omitempty"`
}

// memberResponse は構成員情報のAPIレスポンス。
type memberResponse struct {
	MemberID string `json:"member_id"`
	FamilyID string `json:"family_id"`
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname,omitempty"`
}

func toFamilyResponse(f *model.Family) *familyResponse {
	return &familyResponse{
		FamilyID:   f.ID,
		MainUser:   f.MainUser,
		FamilyName: f.FamilyName,
	}
}

func toMemberResponse(m *model.Member) *memberResponse {
	return &memberResponse{
		MemberID: m.ID,
		FamilyID: m.FamilyID,
		UserID:   m.UserID,
		Nickname: m.Nickname,
	}
}

// Create はファミリー作成を処理する。
// POST /families
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFamilyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.MainUser == "" {
		writeError(w, model.NewNoDataError("Main user is required", []string{"body", "main_user"}))
		return
	}

	created, err := h.service.Create(r.Context(), req.MainUser, req.FamilyName)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusCreated, "Family created successfully", toFamilyResponse(created))
}

// List は全ファミリー一覧を返す。
// GET /families
func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	families, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resps := make([]*familyResponse, 0, len(families))
	for _, f := range families {
		resps = append(resps, toFamilyResponse(f))
	}

	writeResult(w, http.StatusOK, "Families retrieved successfully", resps)
}

// Get は指定ファミリーの詳細を返す。
// GET /families/{family_id}
func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	familyID := chi.URLParam(r, "family_id")

	found, err := h.service.Get(r.Context(), familyID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusOK, "Family retrieved successfully", toFamilyResponse(found))
}

// FindByMainUser は主使用者IDからファミリーを検索する。
// GET /families/find/{user_id}
func (h *FamilyHandler) FindByMainUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	found, err := h.service.FindByMainUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusOK, "Family retrieved successfully", toFamilyResponse(found))
}

// Update はファミリー情報の部分更新を処理する。
// PATCH /families/{family_id}
func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	familyID := chi.URLParam(r, "family_id")

	var req updateFamilyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), familyID, family.UpdateInput{
		MainUser:   req.MainUser,
		FamilyName: req.FamilyName,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusOK, "Family updated successfully", toFamilyResponse(updated))
}

// Delete はファミリー削除を処理する。SYSTEMロールまたは主使用者のみ。
// DELETE /families/{family_id}
func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewUnauthorizedError("Not logged in"))
		return
	}

	familyID := chi.URLParam(r, "family_id")

	if err := h.service.Delete(r.Context(), requesterID, familyID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Family deleted successfully")
}

// AddMember は構成員追加を処理する。
// POST /members
func (h *FamilyHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.FamilyID == "" {
		writeError(w, model.NewNoDataError("Family ID is required", []string{"body", "family_id"}))
		return
	}
	if req.UserID == "" {
		writeError(w, model.NewNoDataError("User ID is required", []string{"body", "user_id"}))
		return
	}

	created, err := h.service.AddMember(r.Context(), req.FamilyID, req.UserID, req.Nickname)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusCreated, "Member added successfully", toMemberResponse(created))
}

// ListMembers はファミリーの構成員一覧を返す。
// GET /members?family_id=...
func (h *FamilyHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	familyID := r.URL.Query().Get("family_id")
	if familyID == "" {
		writeError(w, model.NewNoDataError("Family ID is required", []string{"query", "family_id"}))
		return
	}

	members, err := h.service.ListMembers(r.Context(), familyID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resps := make([]*memberResponse, 0, len(members))
	for _, m := range members {
		resps = append(resps, toMemberResponse(m))
	}

	writeResult(w, http.StatusOK, "Members retrieved successfully", resps)
}

// UpdateMember は構成員の表示名変更を処理する。
// PATCH /members/{member_id}
func (h *FamilyHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "member_id")

	var req updateMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateMemberNickname(r.Context(), memberID, req.Nickname)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusOK, "Member updated successfully", toMemberResponse(updated))
}

// RemoveMember は構成員削除を処理する。
// DELETE /members/{member_id}
func (h *FamilyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "member_id")

	if err := h.service.RemoveMember(r.Context(), memberID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Member removed successfully")
}
