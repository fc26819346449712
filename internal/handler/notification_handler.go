package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carebot/userapi/internal/middleware"
	"github.com/carebot/userapi/internal/model"
)

// NotificationServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	Create(ctx context.Context, requesterID, familyID, grade, descriptions string) (*model.Notification, error)
	List(ctx context.Context, requesterID, familyID string, unreadOnly bool, order string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, requesterID string, index int64) (*model.Notification, error)
	Delete(ctx context.Context, requesterID string, index int64) error
}

// NotificationHandler は通知管理のHTTPハンドラー。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// createNotificationRequest は通知作成リクエストのボディ。
type createNotificationRequest struct {
	FamilyID     string `json:"family_id"`
	Grade        string `json:"notification_grade"`
	Descriptions string `json:"descriptions"`
}

// notificationResponse は通知情報のAPIレスポンス。
type notificationResponse struct {
	Index        int64  `json:"index"`
	FamilyID     string `json:"family_id"`
	Grade        string `json:"notification_grade"`
	Descriptions string `json:"descriptions,omitempty"`
	IsRead       bool   `json:"is_read"`
	CreatedAt    string `json:"created_at"`
}

func toNotificationResponse(n *model.Notification) *notificationResponse {
	return &notificationResponse{
		Index:        n.Index,
		FamilyID:     n.FamilyID,
		Grade:        string(n.Grade),
		Descriptions: n.Descriptions,
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt.Format(time.RFC3339),
	}
}

func toNotificationResponses(notifications []*model.Notification) []*notificationResponse {
	resps := make([]*notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resps = append(resps, toNotificationResponse(n))
	}
	return resps
}

// Create は通知作成を処理する。
// POST /notify
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewUnauthorizedError("Not logged in"))
		return
	}

	var req createNotificationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.FamilyID == "" {
		writeError(w, model.NewNoDataError("Family ID is required", []string{"body", "family_id"}))
		return
	}
	if req.Grade == "" {
		writeError(w, model.NewNoDataError("Notification grade is required", []string{"body", "notification_grade"}))
		return
	}

	created, err := h.service.Create(r.Context(), requesterID, req.FamilyID, req.Grade, req.Descriptions)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusCreated, "Notification created successfully", toNotificationResponse(created))
}

// ListNew は未読通知の一覧を返す。
// GET /notify/new/{family_id}?order=asc|desc
func (h *NotificationHandler) ListNew(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// ListAll は全通知の一覧を返す。
// GET /notify/all/{family_id}?order=asc|desc
func (h *NotificationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request, unreadOnly bool) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewUnauthorizedError("Not logged in"))
		return
	}

	familyID := chi.URLParam(r, "family_id")
	order := r.URL.Query().Get("order")

	notifications, err := h.service.List(r.Context(), requesterID, familyID, unreadOnly, order)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusOK, "Notifications retrieved successfully", toNotificationResponses(notifications))
}

// MarkRead は通知を既読にする。
// PATCH /notify/read/{notification_id}
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewUnauthorizedError("Not logged in"))
		return
	}

	index, ok := parseNotificationID(w, r)
	if !ok {
		return
	}

	updated, err := h.service.MarkRead(r.Context(), requesterID, index)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResult(w, http.StatusOK, "Notification marked as read", toNotificationResponse(updated))
}

// Delete は通知削除を処理する。SYSTEMロールのみ。
// DELETE /notify/{notification_id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requesterID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewUnauthorizedError("Not logged in"))
		return
	}

	index, ok := parseNotificationID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), requesterID, index); err != nil {
		handleServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Notification deleted successfully")
}

// parseNotificationID はURLパラメータの通知IDを数値に変換する。
// 不正な値の場合はInvalidValueエラーを書き込んでfalseを返す。
func parseNotificationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "notification_id")
	index, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, model.NewInvalidValueError("Invalid notification ID"))
		return 0, false
	}
	return index, true
}
