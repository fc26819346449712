package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carebot/userapi/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// Create はアカウントを作成する。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password, role, user_name, birth_date, gender, address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.ID, account.Email, account.Password, account.Role,
		nullString(account.UserName), account.BirthDate, account.Gender,
		nullString(account.Address), account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, role, user_name, birth_date, gender, address, created_at
		 FROM accounts
		 WHERE id = $1`,
		id,
	)

	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	return account, nil
}

// FindIDByEmail はメールアドレスからアカウントIDを検索する。
func (r *PostgresAccountRepo) FindIDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE email = $1`,
		email,
	).Scan(&id)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find account by email: %w", err)
	}

	return id, nil
}

// HashedPassword は指定アカウントのパスワードハッシュを取得する。
func (r *PostgresAccountRepo) HashedPassword(ctx context.Context, id string) (string, error) {
	var hashed string
	err := r.db.QueryRowContext(ctx,
		`SELECT password FROM accounts WHERE id = $1`,
		id,
	).Scan(&hashed)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get hashed password: %w", err)
	}

	return hashed, nil
}

// EmailExists はメールアドレスが登録済みかどうかを返す。
func (r *PostgresAccountRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// List は全アカウントを取得する。
func (r *PostgresAccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, role, user_name, birth_date, gender, address, created_at
		 FROM accounts
		 ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// Update はアカウント情報を更新する。Passwordは変更しない。
func (r *PostgresAccountRepo) Update(ctx context.Context, account *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET email = $2, role = $3, user_name = $4, birth_date = $5, gender = $6, address = $7
		 WHERE id = $1`,
		account.ID, account.Email, account.Role,
		nullString(account.UserName), account.BirthDate, account.Gender,
		nullString(account.Address),
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// UpdatePassword はパスワードハッシュのみを更新する。
func (r *PostgresAccountRepo) UpdatePassword(ctx context.Context, id, hashedPassword string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password = $2 WHERE id = $1`,
		id, hashedPassword,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update password: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// DeleteByID は指定IDのアカウントを削除する。
func (r *PostgresAccountRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// rowScanner は*sql.Rowと*sql.RowsのScanを共通化するためのインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	account := &model.Account{}
	var userName, address sql.NullString
	var birthDate sql.NullTime

	err := row.Scan(
		&account.ID, &account.Email, &account.Role,
		&userName, &birthDate, &account.Gender, &address, &account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.UserName = userName.String
	account.Address = address.String
	if birthDate.Valid {
		account.BirthDate = &birthDate.Time
	}

	return account, nil
}

// nullString は空文字列をNULLとして保存するための変換。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
