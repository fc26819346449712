// Package notification はファミリー宛通知のドメインロジックを提供する。
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/carebot/userapi/internal/model"
	"github.com/carebot/userapi/internal/repository"
	"github.com/carebot/userapi/internal/security"
)

// FamilyAccessChecker は通知へのアクセス可否を判定するインターフェース。
// family.Serviceが実装する。
type FamilyAccessChecker interface {
	CanAccess(ctx context.Context, userID, familyID string) (bool, error)
}

// Service は通知管理のサービス層。
type Service struct {
	notifications repository.NotificationRepository
	families      repository.FamilyRepository
	accounts      repository.AccountRepository
	access        FamilyAccessChecker
	sanitizer     security.DescriptionSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	notifications repository.NotificationRepository,
	families repository.FamilyRepository,
	accounts repository.AccountRepository,
	access FamilyAccessChecker,
	sanitizer security.DescriptionSanitizerService,
) *Service {
	return &Service{
		notifications: notifications,
		families:      families,
		accounts:      accounts,
		access:        access,
		sanitizer:     sanitizer,
	}
}

// Create は新しい通知を作成する。
// 要求者が宛先ファミリーにアクセスできること。重大度の値を検証し、
// 本文は保存前にサニタイズする。採番されたindexを設定した通知を返す。
func (s *Service) Create(ctx context.Context, requesterID, familyID, grade, descriptions string) (*model.Notification, error) {
	parsedGrade, ok := model.ParseNotificationGrade(grade)
	if !ok {
		return nil, model.NewInvalidValueError("Invalid value provided for notification grade")
	}

	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find family: %w", err)
	}
	if family == nil {
		return nil, model.NewNotFoundError("Family not found")
	}

	allowed, err := s.access.CanAccess(ctx, requesterID, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check family access: %w", err)
	}
	if !allowed {
		return nil, model.NewForbiddenError()
	}

	notification := &model.Notification{
		FamilyID:     familyID,
		Grade:        parsedGrade,
		Descriptions: s.sanitizer.Sanitize(descriptions),
		IsRead:       false,
		CreatedAt:    time.Now(),
	}

	index, err := s.notifications.Create(ctx, notification)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	notification.Index = index

	slog.Info("notification created",
		slog.Int64("index", index),
		slog.String("family_id", familyID),
		slog.String("grade", string(parsedGrade)),
	)

	return notification, nil
}

// List はファミリー宛の通知一覧を取得する。
// 要求者がファミリーにアクセスできない場合はForbiddenエラーを返す。
// unreadOnlyがtrueの場合は未読のみ、orderで作成時刻の並び順を指定する。
func (s *Service) List(ctx context.Context, requesterID, familyID string, unreadOnly bool, order string) ([]*model.Notification, error) {
	parsedOrder := model.OrderAsc
	if order != "" {
		var ok bool
		parsedOrder, ok = model.ParseOrder(order)
		if !ok {
			return nil, model.NewInvalidValueError("Invalid value provided for order")
		}
	}

	family, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find family: %w", err)
	}
	if family == nil {
		return nil, model.NewNotFoundError("Family not found")
	}

	allowed, err := s.access.CanAccess(ctx, requesterID, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check family access: %w", err)
	}
	if !allowed {
		return nil, model.NewForbiddenError()
	}

	notifications, err := s.notifications.ListByFamilyID(ctx, familyID, unreadOnly, parsedOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// Get は指定indexの通知を取得する。
// 要求者が宛先ファミリーにアクセスできない場合はForbiddenエラーを返す。
func (s *Service) Get(ctx context.Context, requesterID string, index int64) (*model.Notification, error) {
	notification, err := s.notifications.FindByIndex(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	if notification == nil {
		return nil, model.NewNotFoundError("Notification not found")
	}

	allowed, err := s.access.CanAccess(ctx, requesterID, notification.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check family access: %w", err)
	}
	if !allowed {
		return nil, model.NewForbiddenError()
	}

	return notification, nil
}

// MarkRead は通知を既読にする。既読の通知への再実行も成功する（冪等）。
// 要求者が宛先ファミリーにアクセスできない場合はForbiddenエラーを返す。
func (s *Service) MarkRead(ctx context.Context, requesterID string, index int64) (*model.Notification, error) {
	notification, err := s.Get(ctx, requesterID, index)
	if err != nil {
		return nil, err
	}

	if _, err := s.notifications.MarkRead(ctx, index); err != nil {
		return nil, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	notification.IsRead = true

	slog.Info("notification marked as read",
		slog.Int64("index", index),
		slog.String("user_id", requesterID),
	)

	return notification, nil
}

// Delete は通知を削除する。SYSTEMロールのみ実行できる。
func (s *Service) Delete(ctx context.Context, requesterID string, index int64) error {
	requester, err := s.accounts.FindByID(ctx, requesterID)
	if err != nil {
		return fmt.Errorf("failed to find requester account: %w", err)
	}
	if requester == nil || !requester.IsSystem() {
		return model.NewForbiddenError()
	}

	deleted, err := s.notifications.DeleteByIndex(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if !deleted {
		return model.NewNotFoundError("Notification not found")
	}

	slog.Info("notification deleted", slog.Int64("index", index))
	return nil
}
