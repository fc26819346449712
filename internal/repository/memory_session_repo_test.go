package repository

import (
	"context"
	"testing"
	"time"

	"github.com/carebot/userapi/internal/model"
)

// --- テスト ---

func TestDeleteExpiredBefore_RemovesOnlyExpiredNonMainSessions(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-30 * time.Minute)

	repo := NewMemorySessionRepo()
	ctx := context.Background()

	sessions := []*model.Session{
		// 主使用者かつ期限超過: 掃除の対象外
		{ID: "main-old", UserID: "main-1", IsMainUser: true, LastActive: now.Add(-10000 * time.Second)},
		// 非主使用者かつ期限超過: 削除される
		{ID: "sub-old", UserID: "sub-1", IsMainUser: false, LastActive: now.Add(-10000 * time.Second)},
		// 非主使用者だがアクティブ: 残る
		{ID: "sub-fresh", UserID: "sub-2", IsMainUser: false, LastActive: now.Add(-10 * time.Minute)},
	}
	for _, s := range sessions {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	deleted, err := repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if s, _ := repo.FindByID(ctx, "main-old"); s == nil {
		t.Error("expired main-user session must survive the sweep")
	}
	if s, _ := repo.FindByID(ctx, "sub-old"); s != nil {
		t.Error("expired non-main session should be swept")
	}
	if s, _ := repo.FindByID(ctx, "sub-fresh"); s == nil {
		t.Error("active non-main session must survive the sweep")
	}
}

func TestDeleteExpiredBefore_ExactCutoffIsNotExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-30 * time.Minute)

	repo := NewMemorySessionRepo()
	ctx := context.Background()

	// last_activeがcutoffちょうどのセッションは失効扱いにしない
	if err := repo.Create(ctx, &model.Session{ID: "boundary", UserID: "sub-1", LastActive: cutoff}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deleted, err := repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	if s, _ := repo.FindByID(ctx, "boundary"); s == nil {
		t.Error("session at the exact cutoff must survive")
	}
}

func TestDeleteByUserID_RemovesOnlyThatUsersSessions(t *testing.T) {
	repo := NewMemorySessionRepo()
	ctx := context.Background()
	now := time.Now()

	for _, s := range []*model.Session{
		{ID: "s1", UserID: "user-1", LastActive: now},
		{ID: "s2", UserID: "user-1", LastActive: now},
		{ID: "s3", UserID: "user-2", LastActive: now},
	} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := repo.DeleteByUserID(ctx, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.Len() != 1 {
		t.Errorf("remaining sessions = %d, want 1", repo.Len())
	}
	if s, _ := repo.FindByID(ctx, "s3"); s == nil {
		t.Error("other user's session must survive")
	}
}
