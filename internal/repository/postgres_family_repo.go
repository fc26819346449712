package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carebot/userapi/internal/model"
)

// PostgresFamilyRepo はPostgreSQLを使用した家族リポジトリ。
type PostgresFamilyRepo struct {
	db *sql.DB
}

// NewPostgresFamilyRepo はPostgresFamilyRepoを生成する。
func NewPostgresFamilyRepo(db *sql.DB) *PostgresFamilyRepo {
	return &PostgresFamilyRepo{db: db}
}

// Create は家族を作成する。
func (r *PostgresFamilyRepo) Create(ctx context.Context, family *model.Family) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO families (id, main_user, family_name) VALUES ($1, $2, $3)`,
		family.ID, family.MainUser, nullString(family.FamilyName),
	)
	if err != nil {
		return fmt.Errorf("failed to create family: %w", err)
	}
	return nil
}

// FindByID は指定IDの家族を取得する。見つからない場合はnilを返す。
func (r *PostgresFamilyRepo) FindByID(ctx context.Context, id string) (*model.Family, error) {
	family, err := r.findOne(ctx, `SELECT id, main_user, family_name FROM families WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find family: %w", err)
	}
	return family, nil
}

// FindByMainUser は主使用者IDで家族を検索する。見つからない場合はnilを返す。
func (r *PostgresFamilyRepo) FindByMainUser(ctx context.Context, mainUserID string) (*model.Family, error) {
	family, err := r.findOne(ctx, `SELECT id, main_user, family_name FROM families WHERE main_user = $1`, mainUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find family by main user: %w", err)
	}
	return family, nil
}

// List は全家族を取得する。
func (r *PostgresFamilyRepo) List(ctx context.Context) ([]*model.Family, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, main_user, family_name FROM families ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}
	defer rows.Close()

	var families []*model.Family
	for rows.Next() {
		family := &model.Family{}
		var familyName sql.NullString
		if err := rows.Scan(&family.ID, &family.MainUser, &familyName); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		family.FamilyName = familyName.String
		families = append(families, family)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate families: %w", err)
	}

	return families, nil
}

// Update は家族情報を更新する。
func (r *PostgresFamilyRepo) Update(ctx context.Context, family *model.Family) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE families SET main_user = $2, family_name = $3 WHERE id = $1`,
		family.ID, family.MainUser, nullString(family.FamilyName),
	)
	if err != nil {
		return fmt.Errorf("failed to update family: %w", err)
	}
	return nil
}

// DeleteByID は指定IDの家族を削除する。
func (r *PostgresFamilyRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM families WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete family: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *PostgresFamilyRepo) findOne(ctx context.Context, query string, arg any) (*model.Family, error) {
	family := &model.Family{}
	var familyName sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&family.ID, &family.MainUser, &familyName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	family.FamilyName = familyName.String
	return family, nil
}

// compile-time interface check
var _ FamilyRepository = (*PostgresFamilyRepo)(nil)
