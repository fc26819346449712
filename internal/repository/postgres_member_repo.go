package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carebot/userapi/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用した家族構成員リポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// Create は構成員を追加する。
func (r *PostgresMemberRepo) Create(ctx context.Context, member *model.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, family_id, user_id, nickname) VALUES ($1, $2, $3, $4)`,
		member.ID, member.FamilyID, member.UserID, nullString(member.Nickname),
	)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// FindByID は指定IDの構成員を取得する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByID(ctx context.Context, id string) (*model.Member, error) {
	member := &model.Member{}
	var nickname sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, family_id, user_id, nickname FROM members WHERE id = $1`,
		id,
	).Scan(&member.ID, &member.FamilyID, &member.UserID, &nickname)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	member.Nickname = nickname.String
	return member, nil
}

// FindByFamilyAndUser は家族と利用者の組で構成員を検索する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByFamilyAndUser(ctx context.Context, familyID, userID string) (*model.Member, error) {
	member := &model.Member{}
	var nickname sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, family_id, user_id, nickname FROM members WHERE family_id = $1 AND user_id = $2`,
		familyID, userID,
	).Scan(&member.ID, &member.FamilyID, &member.UserID, &nickname)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	member.Nickname = nickname.String
	return member, nil
}

// ListByFamilyID は家族の構成員一覧を取得する。
func (r *PostgresMemberRepo) ListByFamilyID(ctx context.Context, familyID string) ([]*model.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, family_id, user_id, nickname FROM members WHERE family_id = $1 ORDER BY id`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*model.Member
	for rows.Next() {
		member := &model.Member{}
		var nickname sql.NullString
		if err := rows.Scan(&member.ID, &member.FamilyID, &member.UserID, &nickname); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		member.Nickname = nickname.String
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// Update は構成員情報を更新する。
func (r *PostgresMemberRepo) Update(ctx context.Context, member *model.Member) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE members SET family_id = $2, user_id = $3, nickname = $4 WHERE id = $1`,
		member.ID, member.FamilyID, member.UserID, nullString(member.Nickname),
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの構成員を削除する。
func (r *PostgresMemberRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM members WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete member: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
