package repository

import (
	"context"
	"sync"
	"time"

	"github.com/carebot/userapi/internal/model"
)

// MemorySessionRepo はメモリ上で動作するセッションリポジトリ。
// セッションマネージャのテストと、DBなしでのローカル起動に使用する。
// PostgreSQL実装のトランザクション分離の代わりにミューテックスで
// Transactを直列化する。
type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

// NewMemorySessionRepo はMemorySessionRepoを生成する。
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions: make(map[string]*model.Session),
	}
}

// Create はセッションを作成する。
func (r *MemorySessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *MemorySessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	clone := *session
	return &clone, nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *MemorySessionRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false, nil
	}
	delete(r.sessions, id)
	return true, nil
}

// DeleteByUserID は指定利用者の全セッションを削除する。
func (r *MemorySessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

// DeleteExpiredBefore はlast_activeがcutoffより古い非主使用者セッションを一括削除する。
func (r *MemorySessionRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, session := range r.sessions {
		if !session.IsMainUser && session.LastActive.Before(cutoff) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// Transact はfnをミューテックス保護下で実行する。
func (r *MemorySessionRepo) Transact(ctx context.Context, fn func(tx SessionTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return fn(&memorySessionTx{repo: r})
}

// Len は現在のセッション数を返す。テスト用。
func (r *MemorySessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// memorySessionTx はSessionTxのインメモリ実装。
// 呼び出し時点でリポジトリのミューテックスを保持していることが前提。
type memorySessionTx struct {
	repo *MemorySessionRepo
}

func (t *memorySessionTx) FindByIDForUpdate(ctx context.Context, id string) (*model.Session, error) {
	session, ok := t.repo.sessions[id]
	if !ok {
		return nil, nil
	}
	clone := *session
	return &clone, nil
}

func (t *memorySessionTx) Touch(ctx context.Context, id string, now time.Time) error {
	if session, ok := t.repo.sessions[id]; ok {
		session.LastActive = now
	}
	return nil
}

func (t *memorySessionTx) Delete(ctx context.Context, id string) error {
	delete(t.repo.sessions, id)
	return nil
}

// compile-time interface checks
var _ SessionRepository = (*MemorySessionRepo)(nil)
var _ SessionTx = (*memorySessionTx)(nil)
