// Package session はログインセッションのライフサイクル管理を提供する。
//
// セッションの失効は2経路で行われる。resolve時に参照されたセッションが
// タイムアウト超過していればその場で削除するlazy expiryと、
// worker/cleanupによる定期的な一括削除である。
// 主使用者（MAINロール）のセッションはどちらの経路でも失効しない。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/carebot/userapi/internal/model"
	"github.com/carebot/userapi/internal/repository"
)

// ExpiryRecorder はlazy expiryによるセッション削除を記録するインターフェース。
// metrics.Collectorが実装する。nilの場合は記録しない。
type ExpiryRecorder interface {
	RecordSessionExpired()
}

// Manager はセッションの作成・解決・削除を提供する。
type Manager struct {
	store       repository.SessionRepository
	idleTimeout time.Duration

	// Metrics はlazy expiry発生時の記録先。未設定でもよい。
	Metrics ExpiryRecorder

	// now はテストで時刻を注入するためのフック。
	now func() time.Time
}

// NewManager はManagerを生成する。
// idleTimeoutは非主使用者セッションのアイドル失効時間。
func NewManager(store repository.SessionRepository, idleTimeout time.Duration) *Manager {
	return &Manager{
		store:       store,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Create は新しいセッションを発行して永続化する。
// isMainUserはログイン時点の役割から決定され、以後のresolveで再評価されない。
func (m *Manager) Create(ctx context.Context, userID string, isMainUser bool) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:         sessionID,
		UserID:     userID,
		LastActive: m.now(),
		IsMainUser: isMainUser,
	}

	if err := m.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// Resolve はセッションIDから利用者IDを特定する。
// 未認証（IDなし・セッションなし・失効）の場合はエラーなしで空文字列を返す。
//
// 非主使用者のセッションはlast_activeからidleTimeoutを超過していると
// その場で削除される（lazy expiry）。有効なセッションはlast_activeが
// 現在時刻へ更新される。判定・削除・更新は単一トランザクションで行われ、
// 同一セッションへの並行resolveと直列化される。
func (m *Manager) Resolve(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}

	var userID string
	err := m.store.Transact(ctx, func(tx repository.SessionTx) error {
		session, err := tx.FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return nil
		}

		now := m.now()

		// 主使用者以外はアイドルタイムアウトを適用する
		if !session.IsMainUser && now.Sub(session.LastActive) > m.idleTimeout {
			if err := tx.Delete(ctx, sessionID); err != nil {
				return err
			}
			if m.Metrics != nil {
				m.Metrics.RecordSessionExpired()
			}
			slog.Info("session expired on resolve",
				slog.String("session_id", sessionID),
				slog.String("user_id", session.UserID),
			)
			return nil
		}

		if err := tx.Touch(ctx, sessionID, now); err != nil {
			return err
		}

		userID = session.UserID
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}

	return userID, nil
}

// Delete はセッションを削除する。
// 対象が存在しない場合はfalseを返すが、呼び出し側にとって致命的ではない。
func (m *Manager) Delete(ctx context.Context, sessionID string) (bool, error) {
	found, err := m.store.DeleteByID(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return found, nil
}

// DeleteByUserID は指定利用者の全セッションを削除する。
// アカウント削除時に使用する。
func (m *Manager) DeleteByUserID(ctx context.Context, userID string) error {
	if err := m.store.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
