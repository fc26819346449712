// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/carebot/userapi/internal/model"
)

// AccountRepository は利用者アカウントの永続化インターフェース。
type AccountRepository interface {
	// Create はアカウントを作成する。
	Create(ctx context.Context, account *model.Account) error

	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	// Passwordフィールドは含まれない。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindIDByEmail はメールアドレスからアカウントIDを検索する。
	// 見つからない場合は空文字列を返す。
	FindIDByEmail(ctx context.Context, email string) (string, error)

	// HashedPassword は指定アカウントのパスワードハッシュを取得する。
	// 見つからない場合は空文字列を返す。
	HashedPassword(ctx context.Context, id string) (string, error)

	// EmailExists はメールアドレスが登録済みかどうかを返す。
	EmailExists(ctx context.Context, email string) (bool, error)

	// List は全アカウントを取得する。Passwordフィールドは含まれない。
	List(ctx context.Context) ([]*model.Account, error)

	// Update はアカウント情報を更新する。Passwordは変更しない。
	Update(ctx context.Context, account *model.Account) error

	// UpdatePassword はパスワードハッシュのみを更新する。
	// 対象が存在しない場合はfalseを返す。
	UpdatePassword(ctx context.Context, id, hashedPassword string) (bool, error)

	// DeleteByID は指定IDのアカウントを削除する。
	// 関連するmembers、login_sessionsはCASCADE削除される。
	// 対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// FamilyRepository は家族グループの永続化インターフェース。
type FamilyRepository interface {
	// Create は家族を作成する。
	Create(ctx context.Context, family *model.Family) error

	// FindByID は指定IDの家族を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Family, error)

	// FindByMainUser は主使用者IDで家族を検索する。見つからない場合はnilを返す。
	FindByMainUser(ctx context.Context, mainUserID string) (*model.Family, error)

	// List は全家族を取得する。
	List(ctx context.Context) ([]*model.Family, error)

	// Update は家族情報を更新する。
	Update(ctx context.Context, family *model.Family) error

	// DeleteByID は指定IDの家族を削除する。対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// MemberRepository は家族構成員の永続化インターフェース。
type MemberRepository interface {
	// Create は構成員を追加する。
	Create(ctx context.Context, member *model.Member) error

	// FindByID は指定IDの構成員を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Member, error)

	// FindByFamilyAndUser は家族と利用者の組で構成員を検索する。
	// 見つからない場合はnilを返す。
	FindByFamilyAndUser(ctx context.Context, familyID, userID string) (*model.Member, error)

	// ListByFamilyID は家族の構成員一覧を取得する。
	ListByFamilyID(ctx context.Context, familyID string) ([]*model.Member, error)

	// Update は構成員情報を更新する。
	Update(ctx context.Context, member *model.Member) error

	// DeleteByID は指定IDの構成員を削除する。対象が存在しない場合はfalseを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// NotificationRepository は通知の永続化インターフェース。
type NotificationRepository interface {
	// Create は通知を作成し、採番されたindexを返す。
	Create(ctx context.Context, notification *model.Notification) (int64, error)

	// FindByIndex は指定indexの通知を取得する。見つからない場合はnilを返す。
	FindByIndex(ctx context.Context, index int64) (*model.Notification, error)

	// ListByFamilyID は家族宛の通知一覧を作成時刻順で取得する。
	// unreadOnlyがtrueの場合は未読のみを返す。
	ListByFamilyID(ctx context.Context, familyID string, unreadOnly bool, order model.Order) ([]*model.Notification, error)

	// MarkRead は通知を既読にする。対象が存在しない場合はfalseを返す。
	MarkRead(ctx context.Context, index int64) (bool, error)

	// DeleteByIndex は指定indexの通知を削除する。対象が存在しない場合はfalseを返す。
	DeleteByIndex(ctx context.Context, index int64) (bool, error)
}

// SessionTx はセッション1件に対する読み取り・更新・削除を
// 単一トランザクション内で行うための操作集合。
type SessionTx interface {
	// FindByIDForUpdate は指定IDのセッションを行ロック付きで取得する。
	// 見つからない場合はnilを返す。
	FindByIDForUpdate(ctx context.Context, id string) (*model.Session, error)

	// Touch はlast_activeを指定時刻に更新する。
	Touch(ctx context.Context, id string, now time.Time) error

	// Delete は指定IDのセッションを削除する。
	Delete(ctx context.Context, id string) error
}

// SessionRepository はログインセッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// DeleteByID は指定IDのセッションを削除する。
	// 対象が存在しない場合はfalseを返すが、これはエラーではない。
	DeleteByID(ctx context.Context, id string) (bool, error)

	// DeleteByUserID は指定利用者の全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpiredBefore はlast_activeがcutoffより古い非主使用者セッションを
	// 一括削除し、削除件数を返す。主使用者のセッションは対象外。
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Transact はfnを単一トランザクション内で実行する。
	// fnがエラーを返した場合はロールバックする。
	Transact(ctx context.Context, fn func(tx SessionTx) error) error
}
