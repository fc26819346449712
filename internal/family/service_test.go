package family

import (
	"context"
	"errors"
	"testing"

	"github.com/carebot/userapi/internal/model"
	"github.com/carebot/userapi/internal/repository"
)

// --- モック定義 ---

type mockFamilyRepo struct {
	createFn         func(ctx context.Context, family *model.Family) error
	findByIDFn       func(ctx context.Context, id string) (*model.Family, error)
	findByMainUserFn func(ctx context.Context, mainUserID string) (*model.Family, error)
	listFn           func(ctx context.Context) ([]*model.Family, error)
	updateFn         func(ctx context.Context, family *model.Family) error
	deleteByIDFn     func(ctx context.Context, id string) (bool, error)
}

func (m *mockFamilyRepo) Create(ctx context.Context, family *model.Family) error {
	if m.createFn != nil {
		return m.createFn(ctx, family)
	}
	return nil
}

func (m *mockFamilyRepo) FindByID(ctx context.Context, id string) (*model.Family, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockFamilyRepo) FindByMainUser(ctx context.Context, mainUserID string) (*model.Family, error) {
	if m.findByMainUserFn != nil {
		return m.findByMainUserFn(ctx, mainUserID)
	}
	return nil, nil
}

func (m *mockFamilyRepo) List(ctx context.Context) ([]*model.Family, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockFamilyRepo) Update(ctx context.Context, family *model.Family) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, family)
	}
	return nil
}

func (m *mockFamilyRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return true, nil
}

type mockMemberRepo struct {
	createFn              func(ctx context.Context, member *model.Member) error
	findByIDFn            func(ctx context.Context, id string) (*model.Member, error)
	findByFamilyAndUserFn func(ctx context.Context, familyID, userID string) (*model.Member, error)
	listByFamilyIDFn      func(ctx context.Context, familyID string) ([]*model.Member, error)
	updateFn              func(ctx context.Context, member *model.Member) error
	deleteByIDFn          func(ctx context.Context, id string) (bool, error)
}

func (m *mockMemberRepo) Create(ctx context.Context, member *model.Member) error {
	if m.createFn != nil {
		return m.createFn(ctx, member)
	}
	return nil
}

func (m *mockMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMemberRepo) FindByFamilyAndUser(ctx context.Context, familyID, userID string) (*model.Member, error) {
	if m.findByFamilyAndUserFn != nil {
		return m.findByFamilyAndUserFn(ctx, familyID, userID)
	}
	return nil, nil
}

func (m *mockMemberRepo) ListByFamilyID(ctx context.Context, familyID string) ([]*model.Member, error) {
	if m.listByFamilyIDFn != nil {
		return m.listByFamilyIDFn(ctx, familyID)
	}
	return nil, nil
}

func (m *mockMemberRepo) Update(ctx context.Context, member *model.Member) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, member)
	}
	return nil
}

func (m *mockMemberRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return true, nil
}

type mockAccountRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Account, error)
}

func (m *mockAccountRepo) Create(ctx context.Context, account *model.Account) error { return nil }

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAccountRepo) FindIDByEmail(ctx context.Context, email string) (string, error) {
	return "", nil
}

func (m *mockAccountRepo) HashedPassword(ctx context.Context, id string) (string, error) {
	return "", nil
}

func (m *mockAccountRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (m *mockAccountRepo) List(ctx context.Context) ([]*model.Account, error) { return nil, nil }

func (m *mockAccountRepo) Update(ctx context.Context, account *model.Account) error { return nil }

func (m *mockAccountRepo) UpdatePassword(ctx context.Context, id, hashedPassword string) (bool, error) {
	return true, nil
}

func (m *mockAccountRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	return true, nil
}

// --- compile-time interface checks ---
var _ repository.FamilyRepository = (*mockFamilyRepo)(nil)
var _ repository.MemberRepository = (*mockMemberRepo)(nil)
var _ repository.AccountRepository = (*mockAccountRepo)(nil)

// accountWithRole は指定ロールのアカウントを返すモックを組み立てる。
func accountWithRole(role model.Role) *mockAccountRepo {
	return &mockAccountRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			return &model.Account{ID: id, Role: role}, nil
		},
	}
}

// --- テスト ---

func TestCreate_MainRoleRequired(t *testing.T) {
	svc := NewService(&mockFamilyRepo{}, &mockMemberRepo{}, accountWithRole(model.RoleSub))

	_, err := svc.Create(context.Background(), "user-1", "our family")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeInvalidValue {
		t.Errorf("expected invalid value error for non-MAIN main user, got %v", err)
	}
}

func TestCreate_Success(t *testing.T) {
	var created *model.Family
	families := &mockFamilyRepo{
		createFn: func(ctx context.Context, family *model.Family) error {
			created = family
			return nil
		},
	}

	svc := NewService(families, &mockMemberRepo{}, accountWithRole(model.RoleMain))

	result, err := svc.Create(context.Background(), "main-1", "our family")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("family should be persisted")
	}
	if result.ID == "" {
		t.Error("family ID should be assigned")
	}
	if result.MainUser != "main-1" {
		t.Errorf("mainUser = %q, want %q", result.MainUser, "main-1")
	}
}

func TestCreate_DuplicateMainUser_Conflict(t *testing.T) {
	families := &mockFamilyRepo{
		findByMainUserFn: func(ctx context.Context, mainUserID string) (*model.Family, error) {
			return &model.Family{ID: "family-1", MainUser: mainUserID}, nil
		},
	}

	svc := NewService(families, &mockMemberRepo{}, accountWithRole(model.RoleMain))

	_, err := svc.Create(context.Background(), "main-1", "second family")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeAlreadyExists {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestCreate_MainUserNotFound(t *testing.T) {
	svc := NewService(&mockFamilyRepo{}, &mockMemberRepo{}, &mockAccountRepo{})

	_, err := svc.Create(context.Background(), "ghost", "family")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeNotFound {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestFindByMainUser_NotFound(t *testing.T) {
	svc := NewService(&mockFamilyRepo{}, &mockMemberRepo{}, &mockAccountRepo{})

	_, err := svc.FindByMainUser(context.Background(), "not-a-main-user")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeNotFound {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestDelete_MainUserAllowed(t *testing.T) {
	families := &mockFamilyRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Family, error) {
			return &model.Family{ID: id, MainUser: "main-1"}, nil
		},
	}

	svc := NewService(families, &mockMemberRepo{}, accountWithRole(model.RoleMain))

	if err := svc.Delete(context.Background(), "main-1", "family-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_UnrelatedUserForbidden(t *testing.T) {
	families := &mockFamilyRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Family, error) {
			return &model.Family{ID: id, MainUser: "main-1"}, nil
		},
	}

	svc := NewService(families, &mockMemberRepo{}, accountWithRole(model.RoleSub))

	err := svc.Delete(context.Background(), "someone-else", "family-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeCanNotAccess {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestDelete_SystemAllowed(t *testing.T) {
	families := &mockFamilyRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Family, error) {
			return &model.Family{ID: id, MainUser: "main-1"}, nil
		},
	}

	svc := NewService(families, &mockMemberRepo{}, accountWithRole(model.RoleSystem))

	if err := svc.Delete(context.Background(), "admin", "family-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddMember_SubRoleRequired(t *testing.T) {
	families := &mockFamilyRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Family, error) {
			return &model.Family{ID: id, MainUser: "main-1"}, nil
		},
	}

	svc := NewService(families, &mockMemberRepo{}, accountWithRole(model.RoleMain))

	_, err := svc.AddMember(context.Background(), "family-1", "main-2", "grandma")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeInvalidValue {
		t.Errorf("expected invalid value error for non-SUB member, got %v", err)
	}
}

func TestAddMember_DuplicateConflict(t *testing.T) {
	families := &mockFamilyRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Family, error) {
			return &model.Family{ID: id, MainUser: "main-1"}, nil
		},
	}
	members := &mockMemberRepo{
		findByFamilyAndUserFn: func(ctx context.Context, familyID, userID string) (*model.Member, error) {
			return &model.Member{ID: "member-1", FamilyID: familyID, UserID: userID}, nil
		},
	}

	svc := NewService(families, members, accountWithRole(model.RoleSub))

	_, err := svc.AddMember(context.Background(), "family-1", "sub-1", "papa")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeAlreadyExists {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestAddMember_Success(t *testing.T) {
	families := &mockFamilyRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Family, error) {
			return &model.Family{ID: id, MainUser: "main-1"}, nil
		},
	}

	var created *model.Member
	members := &mockMemberRepo{
		createFn: func(ctx context.Context, member *model.Member) error {
			created = member
			return nil
		},
	}

	svc := NewService(families, members, accountWithRole(model.RoleSub))

	result, err := svc.AddMember(context.Background(), "family-1", "sub-1", "papa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("member should be persisted")
	}
	if result.ID == "" {
		t.Error("member ID should be assigned")
	}
	if result.Nickname != "papa" {
		t.Errorf("nickname = %q, want %q", result.Nickname, "papa")
	}
}

func TestRemoveMember_NotFound(t *testing.T) {
	members := &mockMemberRepo{
		deleteByIDFn: func(ctx context.Context, id string) (bool, error) {
			return false, nil
		},
	}

	svc := NewService(&mockFamilyRepo{}, members, &mockAccountRepo{})

	err := svc.RemoveMember(context.Background(), "ghost-member")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != model.ErrTypeNotFound {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestCanAccess_SystemAlwaysAllowed(t *testing.T) {
	svc := NewService(&mockFamilyRepo{}, &mockMemberRepo{}, accountWithRole(model.RoleSystem))

	allowed, err := svc.CanAccess(context.Background(), "admin", "any-family")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("SYSTEM should access any family")
	}
}

func TestCanAccess_MainUserAllowed(t *testing.T) {
	families := &mockFamilyRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Family, error) {
			return &model.Family{ID: id, MainUser: "main-1"}, nil
		},
	}

	svc := NewService(families, &mockMemberRepo{}, accountWithRole(model.RoleMain))

	allowed, err := svc.CanAccess(context.Background(), "main-1", "family-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("main user should access the family")
	}
}

func TestCanAccess_MemberAllowed(t *testing.T) {
	families := &mockFamilyRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Family, error) {
			return &model.Family{ID: id, MainUser: "main-1"}, nil
		},
	}
	members := &mockMemberRepo{
		findByFamilyAndUserFn: func(ctx context.Context, familyID, userID string) (*model.Member, error) {
			if userID == "sub-1" {
				return &model.Member{ID: "member-1", FamilyID: familyID, UserID: userID}, nil
			}
			return nil, nil
		},
	}

	svc := NewService(families, members, accountWithRole(model.RoleSub))

	allowed, err := svc.CanAccess(context.Background(), "sub-1", "family-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("member should access the family")
	}
}

func TestCanAccess_StrangerDenied(t *testing.T) {
	families := &mockFamilyRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Family, error) {
			return &model.Family{ID: id, MainUser: "main-1"}, nil
		},
	}

	svc := NewService(families, &mockMemberRepo{}, accountWithRole(model.RoleSub))

	allowed, err := svc.CanAccess(context.Background(), "stranger", "family-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("unrelated user should be denied")
	}
}
