package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carebot/userapi/internal/model"
)

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

// Create は通知を作成し、採番されたindexを返す。
func (r *PostgresNotificationRepo) Create(ctx context.Context, notification *model.Notification) (int64, error) {
	var index int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO notifications (family_id, notification_grade, descriptions, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING "index"`,
		notification.FamilyID, notification.Grade,
		nullString(notification.Descriptions), notification.CreatedAt,
	).Scan(&index)
	if err != nil {
		return 0, fmt.Errorf("failed to create notification: %w", err)
	}

	return index, nil
}

// FindByIndex は指定indexの通知を取得する。見つからない場合はnilを返す。
func (r *PostgresNotificationRepo) FindByIndex(ctx context.Context, index int64) (*model.Notification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT "index", family_id, notification_grade, descriptions, is_read, created_at
		 FROM notifications
		 WHERE "index" = $1`,
		index,
	)

	notification, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	return notification, nil
}

// ListByFamilyID は家族宛の通知一覧を作成時刻順で取得する。
func (r *PostgresNotificationRepo) ListByFamilyID(ctx context.Context, familyID string, unreadOnly bool, order model.Order) ([]*model.Notification, error) {
	query := `SELECT "index", family_id, notification_grade, descriptions, is_read, created_at
	          FROM notifications
	          WHERE family_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	if order == model.OrderDesc {
		query += ` ORDER BY created_at DESC, "index" DESC`
	} else {
		query += ` ORDER BY created_at ASC, "index" ASC`
	}

	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead は通知を既読にする。
func (r *PostgresNotificationRepo) MarkRead(ctx context.Context, index int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE "index" = $1`,
		index,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// DeleteByIndex は指定indexの通知を削除する。
func (r *PostgresNotificationRepo) DeleteByIndex(ctx context.Context, index int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE "index" = $1`,
		index,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete notification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	notification := &model.Notification{}
	var descriptions sql.NullString

	err := row.Scan(
		&notification.Index, &notification.FamilyID, &notification.Grade,
		&descriptions, &notification.IsRead, &notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	notification.Descriptions = descriptions.String
	return notification, nil
}

// compile-time interface check
var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
