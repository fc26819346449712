// Package auth はパスワード認証、セッション発行・破棄を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carebot/userapi/internal/model"
	"github.com/carebot/userapi/internal/repository"
)

// SessionManager は認証サービスが必要とするセッション操作のインターフェース。
// session.Managerが実装する。
type SessionManager interface {
	Create(ctx context.Context, userID string, isMainUser bool) (*model.Session, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	sessions    SessionManager
}

// NewService はServiceを生成する。
func NewService(accountRepo repository.AccountRepository, sessions SessionManager) *Service {
	return &Service{
		accountRepo: accountRepo,
		sessions:    sessions,
	}
}

// Login はメールアドレスとパスワードを検証し、セッションを発行する。
// メールアドレス不明とパスワード不一致は同一のエラーメッセージを返し、
// 登録済みメールアドレスの推測を防ぐ。
// セッションの特権（is_main_user）はログイン時点の役割から決定される。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, *model.Account, error) {
	userID, err := s.accountRepo.FindIDByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find account by email: %w", err)
	}
	if userID == "" {
		return nil, nil, model.NewUnauthorizedError("Invalid email or password")
	}

	account, err := s.accountRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, nil, model.NewUnauthorizedError("Invalid email or password")
	}

	hashed, err := s.accountRepo.HashedPassword(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get hashed password: %w", err)
	}
	if !VerifyPassword(password, hashed) {
		return nil, nil, model.NewUnauthorizedError("Invalid email or password")
	}

	session, err := s.sessions.Create(ctx, userID, account.IsMain())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", userID),
		slog.Bool("is_main_user", session.IsMainUser),
	)

	return session, account, nil
}

// Logout はセッションを破棄する。
// セッションが既に存在しない場合もエラーにしない。クライアントから見た
// ログアウトは常に成功する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	found, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if !found {
		slog.Warn("session not found on logout", slog.String("session_id", sessionID))
		return nil
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// ChangePassword はパスワードを変更する。
// SYSTEMロール以外は自分自身のパスワードのみ変更でき、
// 現在のパスワードの提示が必要。SYSTEMロールは任意のアカウントを
// 現在のパスワードなしで変更できる。
func (s *Service) ChangePassword(ctx context.Context, requesterID, targetUserID, currentPassword, newPassword string) error {
	requester, err := s.accountRepo.FindByID(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("failed to find requester account: %w", err)
	}
	if requester == nil || (!requester.IsSystem() && targetUserID != requesterID) {
		return model.NewForbiddenError()
	}

	target, err := s.accountRepo.FindByID(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("failed to find target account: %w", err)
	}
	if target == nil {
		return model.NewNotFoundError("User not found")
	}

	if !requester.IsSystem() {
		hashed, err := s.accountRepo.HashedPassword(ctx, targetUserID)
		if err != nil {
			return fmt.Errorf("failed to get hashed password: %w", err)
		}
		if !VerifyPassword(currentPassword, hashed) {
			return model.NewUnauthorizedError("Invalid password")
		}
	}

	hashedNew, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	updated, err := s.accountRepo.UpdatePassword(ctx, targetUserID, hashedNew)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if !updated {
		return model.NewServerError("Failed to change password")
	}

	slog.Info("password changed", slog.String("user_id", targetUserID))
	return nil
}
