package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carebot/userapi/internal/model"
	"github.com/carebot/userapi/internal/repository"
)

// --- モック定義 ---

type mockAccountRepo struct {
	createFn         func(ctx context.Context, account *model.Account) error
	findByIDFn       func(ctx context.Context, id string) (*model.Account, error)
	findIDByEmailFn  func(ctx context.Context, email string) (string, error)
	hashedPasswordFn func(ctx context.Context, id string) (string, error)
	emailExistsFn    func(ctx context.Context, email string) (bool, error)
	listFn           func(ctx context.Context) ([]*model.Account, error)
	updateFn         func(ctx context.Context, account *model.Account) error
	updatePasswordFn func(ctx context.Context, id, hashedPassword string) (bool, error)
	deleteByIDFn     func(ctx context.Context, id string) (bool, error)
}

func (m *mockAccountRepo) Create(ctx context.Context, account *model.Account) error {
	if m.createFn != nil {
		return m.createFn(ctx, account)
	}
	return nil
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAccountRepo) FindIDByEmail(ctx context.Context, email string) (string, error) {
	if m.findIDByEmailFn != nil {
		return m.findIDByEmailFn(ctx, email)
	}
	return "", nil
}

func (m *mockAccountRepo) HashedPassword(ctx context.Context, id string) (string, error) {
	if m.hashedPasswordFn != nil {
		return m.hashedPasswordFn(ctx, id)
	}
	return "", nil
}

func (m *mockAccountRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockAccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockAccountRepo) Update(ctx context.Context, account *model.Account) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, account)
	}
	return nil
}

func (m *mockAccountRepo) UpdatePassword(ctx context.Context, id, hashedPassword string) (bool, error) {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, hashedPassword)
	}
	return true, nil
}

func (m *mockAccountRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return true, nil
}

type mockSessionManager struct {
	createFn func(ctx context.Context, userID string, isMainUser bool) (*model.Session, error)
	deleteFn func(ctx context.Context, sessionID string) (bool, error)
}

func (m *mockSessionManager) Create(ctx context.Context, userID string, isMainUser bool) (*model.Session, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, isMainUser)
	}
	return &model.Session{ID: "session-1", UserID: userID, IsMainUser: isMainUser, LastActive: time.Now()}, nil
}

func (m *mockSessionManager) Delete(ctx context.Context, sessionID string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, sessionID)
	}
	return true, nil
}

// --- compile-time interface checks ---
var _ repository.AccountRepository = (*mockAccountRepo)(nil)
var _ SessionManager = (*mockSessionManager)(nil)

// mainAccount はテスト用のMAINロールアカウントを返す。
func mainAccount(id string) *model.Account {
	return &model.Account{
		ID:    id,
		Email: id + "@example.com",
		Role:  model.RoleMain,
	}
}

// --- テスト ---

func TestLogin_Success_CreatesSessionWithMainFlag(t *testing.T) {
	hashed, err := HashPassword("correct-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo := &mockAccountRepo{
		findIDByEmailFn: func(ctx context.Context, email string) (string, error) {
			return "user-1", nil
		},
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			return mainAccount("user-1"), nil
		},
		hashedPasswordFn: func(ctx context.Context, id string) (string, error) {
			return hashed, nil
		},
	}

	var gotIsMain bool
	sessions := &mockSessionManager{
		createFn: func(ctx context.Context, userID string, isMainUser bool) (*model.Session, error) {
			gotIsMain = isMainUser
			return &model.Session{ID: "session-1", UserID: userID, IsMainUser: isMainUser}, nil
		},
	}

	svc := NewService(repo, sessions)

	session, account, err := svc.Login(context.Background(), "user-1@example.com", "correct-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID != "session-1" {
		t.Errorf("session ID = %q, want %q", session.ID, "session-1")
	}
	if account.ID != "user-1" {
		t.Errorf("account ID = %q, want %q", account.ID, "user-1")
	}
	if !gotIsMain {
		t.Error("session should be created with is_main_user=true for MAIN role")
	}
}

func TestLogin_UnknownEmail_SameMessageAsWrongPassword(t *testing.T) {
	repo := &mockAccountRepo{}
	sessionCreated := false
	sessions := &mockSessionManager{
		createFn: func(ctx context.Context, userID string, isMainUser bool) (*model.Session, error) {
			sessionCreated = true
			return nil, nil
		},
	}

	svc := NewService(repo, sessions)

	_, _, unknownEmailErr := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if unknownEmailErr == nil {
		t.Fatal("expected error for unknown email")
	}

	hashed, err := HashPassword("real-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.findIDByEmailFn = func(ctx context.Context, email string) (string, error) { return "user-1", nil }
	repo.findByIDFn = func(ctx context.Context, id string) (*model.Account, error) { return mainAccount("user-1"), nil }
	repo.hashedPasswordFn = func(ctx context.Context, id string) (string, error) { return hashed, nil }

	_, _, wrongPasswordErr := svc.Login(context.Background(), "user-1@example.com", "wrong-password")
	if wrongPasswordErr == nil {
		t.Fatal("expected error for wrong password")
	}

	// メールアドレスの存在を推測できないよう、両ケースで同一メッセージ
	var e1, e2 *model.APIError
	if !errors.As(unknownEmailErr, &e1) || !errors.As(wrongPasswordErr, &e2) {
		t.Fatal("both errors should be APIError")
	}
	if e1.Message != e2.Message {
		t.Errorf("messages differ: %q vs %q", e1.Message, e2.Message)
	}
	if e1.Type != model.ErrTypeUnauthorized {
		t.Errorf("type = %q, want %q", e1.Type, model.ErrTypeUnauthorized)
	}
	if sessionCreated {
		t.Error("failed login must not create a session")
	}
}

func TestLogout_AbsentSession_NotFatal(t *testing.T) {
	sessions := &mockSessionManager{
		deleteFn: func(ctx context.Context, sessionID string) (bool, error) {
			return false, nil
		},
	}

	svc := NewService(&mockAccountRepo{}, sessions)

	if err := svc.Logout(context.Background(), "gone-session"); err != nil {
		t.Errorf("logout of absent session should succeed, got %v", err)
	}
}

func TestLogout_StorageError_ReturnsError(t *testing.T) {
	sessions := &mockSessionManager{
		deleteFn: func(ctx context.Context, sessionID string) (bool, error) {
			return false, errors.New("connection refused")
		},
	}

	svc := NewService(&mockAccountRepo{}, sessions)

	if err := svc.Logout(context.Background(), "some-session"); err == nil {
		t.Error("expected error from storage failure")
	}
}

func TestChangePassword_SelfWithCorrectCurrent(t *testing.T) {
	hashed, err := HashPassword("old-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := false
	repo := &mockAccountRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			return &model.Account{ID: id, Role: model.RoleSub}, nil
		},
		hashedPasswordFn: func(ctx context.Context, id string) (string, error) {
			return hashed, nil
		},
		updatePasswordFn: func(ctx context.Context, id, hashedPassword string) (bool, error) {
			updated = true
			if !VerifyPassword("new-password", hashedPassword) {
				t.Error("stored hash should match the new password")
			}
			return true, nil
		},
	}

	svc := NewService(repo, &mockSessionManager{})

	if err := svc.ChangePassword(context.Background(), "user-1", "user-1", "old-password", "new-password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Error("password should be updated")
	}
}

func TestChangePassword_SelfWithWrongCurrent_Unauthorized(t *testing.T) {
	hashed, err := HashPassword("old-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repo := &mockAccountRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			return &model.Account{ID: id, Role: model.RoleSub}, nil
		},
		hashedPasswordFn: func(ctx context.Context, id string) (string, error) {
			return hashed, nil
		},
	}

	svc := NewService(repo, &mockSessionManager{})

	err = svc.ChangePassword(context.Background(), "user-1", "user-1", "wrong", "new-password")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeUnauthorized {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}

func TestChangePassword_NonSystemCannotChangeOthers(t *testing.T) {
	repo := &mockAccountRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			return &model.Account{ID: id, Role: model.RoleSub}, nil
		},
	}

	svc := NewService(repo, &mockSessionManager{})

	err := svc.ChangePassword(context.Background(), "user-1", "user-2", "whatever", "new-password")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeCanNotAccess {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestChangePassword_SystemChangesAnyoneWithoutCurrent(t *testing.T) {
	updated := false
	repo := &mockAccountRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			if id == "admin" {
				return &model.Account{ID: "admin", Role: model.RoleSystem}, nil
			}
			return &model.Account{ID: id, Role: model.RoleSub}, nil
		},
		updatePasswordFn: func(ctx context.Context, id, hashedPassword string) (bool, error) {
			updated = true
			return true, nil
		},
	}

	svc := NewService(repo, &mockSessionManager{})

	if err := svc.ChangePassword(context.Background(), "admin", "user-2", "", "new-password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Error("SYSTEM should be able to change another user's password")
	}
}

func TestChangePassword_TargetNotFound(t *testing.T) {
	repo := &mockAccountRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			if id == "admin" {
				return &model.Account{ID: "admin", Role: model.RoleSystem}, nil
			}
			return nil, nil
		},
	}

	svc := NewService(repo, &mockSessionManager{})

	err := svc.ChangePassword(context.Background(), "admin", "ghost", "", "new-password")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeNotFound {
		t.Errorf("expected not found error, got %v", err)
	}
}
