// Package family はファミリー（見守りグループ）と構成員管理のドメインロジックを提供する。
package family

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carebot/userapi/internal/model"
	"github.com/carebot/userapi/internal/repository"
)

// Service はファミリー管理のサービス層。
type Service struct {
	families repository.FamilyRepository
	members  repository.MemberRepository
	accounts repository.AccountRepository
}

// NewService はServiceを生成する。
func NewService(families repository.FamilyRepository, members repository.MemberRepository, accounts repository.AccountRepository) *Service {
	return &Service{
		families: families,
		members:  members,
		accounts: accounts,
	}
}

// Create は新しいファミリーを作成する。
// 主使用者に指定するアカウントは存在し、MAINロールであり、
// 他のファミリーの主使用者になっていないこと。
func (s *Service) Create(ctx context.Context, mainUserID, familyName string) (*model.Family, error) {
	account, err := s.accounts.FindByID(ctx, mainUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find main user account: %w", err)
	}
	if account == nil {
		return nil, model.NewNotFoundError("Main user account not found")
	}
	if account.Role != model.RoleMain {
		return nil, model.NewInvalidValueError("Main user must have MAIN role")
	}

	existing, err := s.families.FindByMainUser(ctx, mainUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing family: %w", err)
	}
	if existing != nil {
		return nil, model.NewConflictError("User is already a main user of another family")
	}

	family := &model.Family{
		ID:         uuid.New().String(),
		MainUser:   mainUserID,
		FamilyName: familyName,
	}

	if err := s.families.Create(ctx, family); err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	slog.Info("family created",
		slog.String("family_id", family.ID),
		slog.String("main_user", mainUserID),
	)

	return family, nil
}

// List は全ファミリーを取得する。
func (s *Service) List(ctx context.Context) ([]*model.Family, error) {
	families, err := s.families.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}
	return families, nil
}

// Get は指定IDのファミリーを取得する。
func (s *Service) Get(ctx context.Context, familyID string) (*model.Family, error) {
	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find family: %w", err)
	}
	if family == nil {
		return nil, model.NewNotFoundError("Family not found")
	}
	return family, nil
}

// FindByMainUser は主使用者IDからファミリーを検索する。
// その利用者が主使用者でない場合はNotFoundエラーを返す。
func (s *Service) FindByMainUser(ctx context.Context, mainUserID string) (*model.Family, error) {
	family, err := s.families.FindByMainUser(ctx, mainUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find family by main user: %w", err)
	}
	if family == nil {
		return nil, model.NewNotFoundError("Family not found")
	}
	return family, nil
}

// UpdateInput はファミリー更新の入力。nil以外のフィールドのみ反映する。
type UpdateInput struct {
	MainUser   *string
	FamilyName *string
}

// Update はファミリー情報を部分更新する。
// 主使用者の変更時は新しい主使用者の存在・MAINロール・一意性を検査する。
func (s *Service) Update(ctx context.Context, familyID string, in UpdateInput) (*model.Family, error) {
	previous, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find family: %w", err)
	}
	if previous == nil {
		return nil, model.NewNotFoundError("Family not found")
	}

	updated := *previous

	if in.MainUser != nil && *in.MainUser != previous.MainUser {
		account, err := s.accounts.FindByID(ctx, *in.MainUser)
		if err != nil {
			return nil, fmt.Errorf("failed to find main user account: %w", err)
		}
		if account == nil {
			return nil, model.NewNotFoundError("Main user account not found")
		}
		if account.Role != model.RoleMain {
			return nil, model.NewInvalidValueError("Main user must have MAIN role")
		}

		other, err := s.families.FindByMainUser(ctx, *in.MainUser)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing family: %w", err)
		}
		if other != nil {
			return nil, model.NewConflictError("User is already a main user of another family")
		}
		updated.MainUser = *in.MainUser
	}
	if in.FamilyName != nil {
		updated.FamilyName = *in.FamilyName
	}

	if err := s.families.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update family: %w", err)
	}

	slog.Info("family updated", slog.String("family_id", familyID))
	return &updated, nil
}

// Delete はファミリーを削除する。
// SYSTEMロールまたはそのファミリーの主使用者のみ削除できる。
// 構成員・通知はDBの外部キーで連鎖削除される。
func (s *Service) Delete(ctx context.Context, requesterID, familyID string) error {
	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return fmt.Errorf("failed to find family: %w", err)
	}
	if family == nil {
		return model.NewNotFoundError("Family not found")
	}

	requester, err := s.accounts.FindByID(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("failed to find requester account: %w", err)
	}
	if requester == nil || (!requester.IsSystem() && family.MainUser != requesterID) {
		return model.NewForbiddenError()
	}

	deleted, err := s.families.DeleteByID(ctx, familyID)
	if err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Family not found")
	}

	slog.Info("family deleted", slog.String("family_id", familyID))
	return nil
}

// AddMember はファミリーに構成員を追加する。
// 追加できるのはSUBロールのアカウントのみ。
// 同一ファミリーへの同一利用者の重複登録はConflictエラーになる。
func (s *Service) AddMember(ctx context.Context, familyID, userID, nickname string) (*model.Member, error) {
	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find family: %w", err)
	}
	if family == nil {
		return nil, model.NewNotFoundError("Family not found")
	}

	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find member account: %w", err)
	}
	if account == nil {
		return nil, model.NewNotFoundError("Account not found")
	}
	if account.Role != model.RoleSub {
		return nil, model.NewInvalidValueError("Member must have SUB role")
	}

	existing, err := s.members.FindByFamilyAndUser(ctx, familyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing member: %w", err)
	}
	if existing != nil {
		return nil, model.NewConflictError("User is already a member of this family")
	}

	member := &model.Member{
		ID:       uuid.New().String(),
		FamilyID: familyID,
		UserID:   userID,
		Nickname: nickname,
	}

	if err := s.members.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	slog.Info("family member added",
		slog.String("family_id", familyID),
		slog.String("user_id", userID),
	)

	return member, nil
}

// ListMembers はファミリーの構成員一覧を取得する。
func (s *Service) ListMembers(ctx context.Context, familyID string) ([]*model.Member, error) {
	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find family: %w", err)
	}
	if family == nil {
		return nil, model.NewNotFoundError("Family not found")
	}

	members, err := s.members.ListByFamilyID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// UpdateMemberNickname は構成員の表示名を変更する。
func (s *Service) UpdateMemberNickname(ctx context.Context, memberID, nickname string) (*model.Member, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	if member == nil {
		return nil, model.NewNotFoundError("Member not found")
	}

	member.Nickname = nickname
	if err := s.members.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	slog.Info("family member updated", slog.String("member_id", memberID))
	return member, nil
}

// RemoveMember はファミリーから構成員を外す。アカウント自体は削除しない。
func (s *Service) RemoveMember(ctx context.Context, memberID string) error {
	deleted, err := s.members.DeleteByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Member not found")
	}

	slog.Info("family member removed", slog.String("member_id", memberID))
	return nil
}

// CanAccess は利用者がファミリーの通知にアクセスできるかを判定する。
// SYSTEMロール、主使用者、構成員のいずれかであればアクセスできる。
func (s *Service) CanAccess(ctx context.Context, userID, familyID string) (bool, error) {
	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return false, nil
	}
	if account.IsSystem() {
		return true, nil
	}

	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return false, fmt.Errorf("failed to find family: %w", err)
	}
	if family == nil {
		return false, nil
	}
	if family.MainUser == userID {
		return true, nil
	}

	member, err := s.members.FindByFamilyAndUser(ctx, familyID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to find member: %w", err)
	}
	return member != nil, nil
}
