// Package services – NotificationService
//
// This file implements the read-side use-cases for notifications: paginated
// listing per recipient and the trivial mark-read mutation. Creation is the
// scheduler's exclusive job; nothing here ever inserts or deletes rows.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/repo"
)

// NotificationService exposes a recipient's notification feed.
type NotificationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// ListPage returns a page of notifications for a recipient (newest first).
// It applies defaults for invalid page/pageSize and returns the total count.
func (s *NotificationService) ListPage(ctx context.Context, recipientID string, page, pageSize int) ([]domain.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountNotifications(ctx, s.DB, recipientID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Notification{}, 0, nil
	}

	items, err := repo.ListNotificationsPage(ctx, s.DB, recipientID, offset, pageSize)
	return items, total, err
}

// MarkRead flags a notification as read, enforcing recipient ownership.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	if err := repo.MarkNotificationRead(ctx, s.DB, notificationID, recipientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
