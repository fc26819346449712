package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carebot/userapi/internal/middleware"
	"github.com/carebot/userapi/internal/model"
)

// --- モック定義 ---

type mockNotificationService struct {
	createFn   func(ctx context.Context, requesterID, familyID, grade, descriptions string) (*model.Notification, error)
	listFn     func(ctx context.Context, requesterID, familyID string, unreadOnly bool, order string) ([]*model.Notification, error)
	markReadFn func(ctx context.Context, requesterID string, index int64) (*model.Notification, error)
	deleteFn   func(ctx context.Context, requesterID string, index int64) error
}

func (m *mockNotificationService) Create(ctx context.Context, requesterID, familyID, grade, descriptions string) (*model.Notification, error) {
	if m.createFn != nil {
		return m.createFn(ctx, requesterID, familyID, grade, descriptions)
	}
	return &model.Notification{Index: 1, FamilyID: familyID, Grade: model.GradeInfo, Descriptions: descriptions, CreatedAt: time.Now()}, nil
}

func (m *mockNotificationService) List(ctx context.Context, requesterID, familyID string, unreadOnly bool, order string) ([]*model.Notification, error) {
	if m.listFn != nil {
		return m.listFn(ctx, requesterID, familyID, unreadOnly, order)
	}
	return nil, nil
}

func (m *mockNotificationService) MarkRead(ctx context.Context, requesterID string, index int64) (*model.Notification, error) {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, requesterID, index)
	}
	return &model.Notification{Index: index, FamilyID: "family-1", Grade: model.GradeInfo, IsRead: true, CreatedAt: time.Now()}, nil
}

func (m *mockNotificationService) Delete(ctx context.Context, requesterID string, index int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, requesterID, index)
	}
	return nil
}

var _ NotificationServiceInterface = (*mockNotificationService)(nil)

func newNotificationRouter(service NotificationServiceInterface) http.Handler {
	h := NewNotificationHandler(service)
	r := chi.NewRouter()
	r.Post("/notify", h.Create)
	r.Get("/notify/new/{family_id}", h.ListNew)
	r.Get("/notify/all/{family_id}", h.ListAll)
	r.Patch("/notify/read/{notification_id}", h.MarkRead)
	r.Delete("/notify/{notification_id}", h.Delete)
	return r
}

func loggedInRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "sub-1"))
}

// --- テスト ---

func TestNotificationCreate_Success(t *testing.T) {
	var gotGrade string
	service := &mockNotificationService{
		createFn: func(ctx context.Context, requesterID, familyID, grade, descriptions string) (*model.Notification, error) {
			gotGrade = grade
			return &model.Notification{Index: 7, FamilyID: familyID, Grade: model.GradeWarn, Descriptions: descriptions, CreatedAt: time.Now()}, nil
		},
	}
	router := newNotificationRouter(service)

	req := loggedInRequest(http.MethodPost, "/notify", `{"family_id":"family-1","notification_grade":"warn","descriptions":"転倒を検知しました"}`)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if gotGrade != "warn" {
		t.Errorf("grade = %q, want %q", gotGrade, "warn")
	}
	if !strings.Contains(rec.Body.String(), `"index":7`) {
		t.Errorf("response should contain the assigned index: %s", rec.Body.String())
	}
}

func TestNotificationCreate_MissingFields(t *testing.T) {
	router := newNotificationRouter(&mockNotificationService{})

	tests := []struct {
		name string
		body string
	}{
		{"missing family_id", `{"notification_grade":"info"}`},
		{"missing grade", `{"family_id":"family-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := loggedInRequest(http.MethodPost, "/notify", tt.body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
			}
		})
	}
}

func TestNotificationCreate_NotLoggedIn(t *testing.T) {
	router := newNotificationRouter(&mockNotificationService{})

	req := httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(`{"family_id":"family-1","notification_grade":"info"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestListNew_PassesUnreadOnly(t *testing.T) {
	var gotUnreadOnly bool
	var gotOrder string
	service := &mockNotificationService{
		listFn: func(ctx context.Context, requesterID, familyID string, unreadOnly bool, order string) ([]*model.Notification, error) {
			gotUnreadOnly = unreadOnly
			gotOrder = order
			return nil, nil
		},
	}
	router := newNotificationRouter(service)

	req := loggedInRequest(http.MethodGet, "/notify/new/family-1?order=desc", "")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !gotUnreadOnly {
		t.Error("ListNew should request unread only")
	}
	if gotOrder != "desc" {
		t.Errorf("order = %q, want %q", gotOrder, "desc")
	}
}

func TestListAll_IncludesRead(t *testing.T) {
	var gotUnreadOnly bool
	service := &mockNotificationService{
		listFn: func(ctx context.Context, requesterID, familyID string, unreadOnly bool, order string) ([]*model.Notification, error) {
			gotUnreadOnly = unreadOnly
			return nil, nil
		},
	}
	router := newNotificationRouter(service)

	req := loggedInRequest(http.MethodGet, "/notify/all/family-1", "")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUnreadOnly {
		t.Error("ListAll should not filter to unread only")
	}
}

func TestMarkRead_InvalidID(t *testing.T) {
	router := newNotificationRouter(&mockNotificationService{})

	req := loggedInRequest(http.MethodPatch, "/notify/read/not-a-number", "")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestMarkRead_Success(t *testing.T) {
	router := newNotificationRouter(&mockNotificationService{})

	req := loggedInRequest(http.MethodPatch, "/notify/read/5", "")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"is_read":true`) {
		t.Errorf("response should show the notification as read: %s", rec.Body.String())
	}
}

func TestNotificationDelete_Forbidden(t *testing.T) {
	service := &mockNotificationService{
		deleteFn: func(ctx context.Context, requesterID string, index int64) error {
			return model.NewForbiddenError()
		},
	}
	router := newNotificationRouter(service)

	req := loggedInRequest(http.MethodDelete, "/notify/5", "")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
