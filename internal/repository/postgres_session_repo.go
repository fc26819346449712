package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carebot/userapi/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したログインセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_sessions (id, user_id, last_active, is_main_user)
		 VALUES ($1, $2, $3, $4)`,
		session.ID, session.UserID, session.LastActive, session.IsMainUser,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, last_active, is_main_user
		 FROM login_sessions
		 WHERE id = $1`,
		id,
	).Scan(&session.ID, &session.UserID, &session.LastActive, &session.IsMainUser)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM login_sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// DeleteByUserID は指定利用者の全セッションを削除する。
func (r *PostgresSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM login_sessions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredBefore はlast_activeがcutoffより古い非主使用者セッションを一括削除する。
func (r *PostgresSessionRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM login_sessions WHERE is_main_user = FALSE AND last_active < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}

// Transact はfnを単一トランザクション内で実行する。
// セッションの失効判定と削除・更新を同一セッションに対する
// 並行resolveと直列化するため、fn内の読み取りは行ロックを取得する。
func (r *PostgresSessionRepo) Transact(ctx context.Context, fn func(tx SessionTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&postgresSessionTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// postgresSessionTx はSessionTxのトランザクション実装。
type postgresSessionTx struct {
	tx *sql.Tx
}

// FindByIDForUpdate は指定IDのセッションをFOR UPDATEで取得する。
func (t *postgresSessionTx) FindByIDForUpdate(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, user_id, last_active, is_main_user
		 FROM login_sessions
		 WHERE id = $1
		 FOR UPDATE`,
		id,
	).Scan(&session.ID, &session.UserID, &session.LastActive, &session.IsMainUser)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session for update: %w", err)
	}

	return session, nil
}

// Touch はlast_activeを指定時刻に更新する。
func (t *postgresSessionTx) Touch(ctx context.Context, id string, now time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE login_sessions SET last_active = $2 WHERE id = $1`,
		id, now,
	)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Delete は指定IDのセッションを削除する。
func (t *postgresSessionTx) Delete(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM login_sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// compile-time interface checks
var _ SessionRepository = (*PostgresSessionRepo)(nil)
var _ SessionTx = (*postgresSessionTx)(nil)
