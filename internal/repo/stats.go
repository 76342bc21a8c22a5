// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
)

// NotificationsStats returns aggregate metadata for a recipient's
// notifications: the total number of rows and the maximum UpdatedAt timestamp
// among those rows.
//
// It executes two lightweight queries against the notifications table scoped
// to the provided recipientID. When the recipient has no notifications, the
// returned count is 0 and maxUpdatedAt is nil.
func NotificationsStats(ctx context.Context, db *gorm.DB, recipientID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Notification{}).Where("recipient_id = ?", recipientID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// SaleStats returns the number of installments and the latest UpdatedAt for a
// sale's schedule. Useful for conditional GETs on the sale detail endpoint.
func SaleStats(ctx context.Context, db *gorm.DB, saleID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Installment{}).Where("sale_id = ?", saleID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
