// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model.
//
// Error semantics:
//   - CreateNotification translates unique-constraint violations on
//     (agenda_entry_id, fire_date) into ErrDuplicate. The scheduler treats
//     that as "already fired today", not as a failure, which is what makes
//     concurrent ticks safe without explicit locking.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
)

// ErrDuplicate indicates that a notification already exists for the given
// (agenda entry, calendar day) pair.
var ErrDuplicate = errors.New("duplicate")

// CreateNotification inserts a notification row for entryID firing on
// fireDate (YYYY-MM-DD). Returns ErrDuplicate when a row for the same entry
// and day already exists.
func CreateNotification(ctx context.Context, db *gorm.DB, recipientID, entryID, fireDate, message string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:            uuid.NewString(),
		RecipientID:   recipientID,
		AgendaEntryID: entryID,
		FireDate:      fireDate,
		Message:       message,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return n, nil
}

// NotificationExists reports whether a notification for (entryID, fireDate)
// is already persisted. The scheduler checks before inserting so the common
// re-run path skips cheaply; the unique index still backstops the race.
func NotificationExists(ctx context.Context, db *gorm.DB, entryID, fireDate string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("agenda_entry_id = ? AND fire_date = ?", entryID, fireDate).
		Count(&count).Error
	return count > 0, err
}

// ListNotificationsPage returns a paginated slice of notifications for
// recipientID, newest first. Use CountNotifications to obtain the total for
// pagination metadata.
func ListNotificationsPage(ctx context.Context, db *gorm.DB, recipientID string, offset, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountNotifications returns the total number of notifications for recipientID.
func CountNotifications(ctx context.Context, db *gorm.DB, recipientID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&total).Error
	return total, err
}

// MarkNotificationRead flags a notification as read, enforcing recipient
// ownership. If no rows are affected it returns ErrNotFound.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, id, recipientID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Updates(map[string]any{"read": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed: unique")
}
