// Package account は利用者アカウント管理のドメインロジックを提供する。
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carebot/userapi/internal/auth"
	"github.com/carebot/userapi/internal/model"
	"github.com/carebot/userapi/internal/repository"
)

// SessionDeleter はアカウント削除時に全セッションを破棄するためのインターフェース。
// session.Managerが実装する。
type SessionDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// Service はアカウント管理のサービス層。
type Service struct {
	accounts repository.AccountRepository
	sessions SessionDeleter
}

// NewService はServiceを生成する。
func NewService(accounts repository.AccountRepository, sessions SessionDeleter) *Service {
	return &Service{
		accounts: accounts,
		sessions: sessions,
	}
}

// BirthDate はリクエストで受け取る生年月日。
type BirthDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// CreateInput はアカウント作成の入力。
// Email・Passwordは必須（ハンドラーで検証済み）。
// Role未指定はTEST、Gender未指定はOTHERになる。
type CreateInput struct {
	Email     string
	Password  string
	Role      string
	UserName  string
	BirthDate *BirthDate
	Gender    string
	Address   string
}

// UpdateInput はアカウント更新の入力。nil以外のフィールドのみ反映する。
type UpdateInput struct {
	Email     *string
	Role      *string
	UserName  *string
	BirthDate *BirthDate
	Gender    *string
	Address   *string
}

// Create は新しいアカウントを作成する。
// 役割・性別・生年月日の値検証と、メールアドレスの重複検査を行う。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Account, error) {
	role := model.RoleTest
	if in.Role != "" {
		var ok bool
		role, ok = model.ParseRole(in.Role)
		if !ok {
			return nil, model.NewInvalidValueError("Invalid value provided for account details (role)")
		}
	}

	gender := model.GenderOther
	if in.Gender != "" {
		parsed, ok := model.ParseGender(in.Gender)
		if !ok {
			return nil, model.NewInvalidValueError("Invalid value provided for account details (gender)")
		}
		gender = parsed
	}

	birthDate, err := convertBirthDate(in.BirthDate)
	if err != nil {
		return nil, err
	}

	exists, err := s.accounts.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, model.NewConflictError("Email is already in use")
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		ID:        uuid.New().String(),
		Email:     in.Email,
		Password:  hashed,
		Role:      role,
		UserName:  in.UserName,
		BirthDate: birthDate,
		Gender:    gender,
		Address:   in.Address,
		CreatedAt: time.Now(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("new account created",
		slog.String("user_id", account.ID),
		slog.String("role", string(account.Role)),
	)

	return account, nil
}

// CheckEmail はメールアドレスが登録可能かどうかを検査する。
// 登録済みの場合はConflictエラーを返す。
func (s *Service) CheckEmail(ctx context.Context, email string) error {
	exists, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return model.NewConflictError("Email is already in use")
	}
	return nil
}

// List は全アカウントを取得する。
func (s *Service) List(ctx context.Context) ([]*model.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// Get は指定IDのアカウントを取得する。
func (s *Service) Get(ctx context.Context, userID string) (*model.Account, error) {
	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewNotFoundError("Account not found")
	}
	return account, nil
}

// Update はアカウント情報を部分更新する。
// 指定されなかったフィールドは既存の値を維持する。
func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (*model.Account, error) {
	previous, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if previous == nil {
		return nil, model.NewNotFoundError("Account not found")
	}

	updated := *previous

	if in.Role != nil {
		role, ok := model.ParseRole(*in.Role)
		if !ok {
			return nil, model.NewInvalidValueError("Invalid value provided for account details (role)")
		}
		updated.Role = role
	}
	if in.Gender != nil {
		gender, ok := model.ParseGender(*in.Gender)
		if !ok {
			return nil, model.NewInvalidValueError("Invalid value provided for account details (gender)")
		}
		updated.Gender = gender
	}
	if in.BirthDate != nil {
		birthDate, err := convertBirthDate(in.BirthDate)
		if err != nil {
			return nil, err
		}
		updated.BirthDate = birthDate
	}
	if in.Email != nil && *in.Email != previous.Email {
		exists, err := s.accounts.EmailExists(ctx, *in.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email existence: %w", err)
		}
		if exists {
			return nil, model.NewConflictError("Email is already in use")
		}
		updated.Email = *in.Email
	}
	if in.UserName != nil {
		updated.UserName = *in.UserName
	}
	if in.Address != nil {
		updated.Address = *in.Address
	}

	if err := s.accounts.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	slog.Info("account updated", slog.String("user_id", userID))
	return &updated, nil
}

// Delete はアカウントを削除する。
// SYSTEMロール以外は自分自身のアカウントのみ削除できる。
// 削除前に対象利用者の全セッションを破棄する。
func (s *Service) Delete(ctx context.Context, requesterID, targetUserID string) error {
	requester, err := s.accounts.FindByID(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("failed to find requester account: %w", err)
	}
	if requester == nil || (!requester.IsSystem() && targetUserID != requesterID) {
		return model.NewForbiddenError()
	}

	target, err := s.accounts.FindByID(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("failed to find target account: %w", err)
	}
	if target == nil {
		return model.NewNotFoundError("Account not found")
	}

	if err := s.sessions.DeleteByUserID(ctx, targetUserID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}

	deleted, err := s.accounts.DeleteByID(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Account not found")
	}

	slog.Info("account deleted", slog.String("user_id", targetUserID))
	return nil
}

// convertBirthDate は入力された生年月日を検証してtime.Timeに変換する。
// 年は1900〜2022、月は1〜12、日は1〜31の範囲のみ受け付ける。
func convertBirthDate(b *BirthDate) (*time.Time, error) {
	if b == nil {
		return nil, nil
	}

	if b.Year < 1900 || b.Year > 2022 ||
		b.Month < 1 || b.Month > 12 ||
		b.Day < 1 || b.Day > 31 {
		return nil, model.NewInvalidValueError("Invalid value provided for account details (birth date)")
	}

	t := time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
	return &t, nil
}
