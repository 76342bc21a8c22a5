// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// AuditSnapshot model. Snapshots are append-only: there is no update or
// delete path.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
)

// CreateAuditSnapshot persists a pre-deletion snapshot. Must run inside the
// same transaction as the delete it protects, before the delete is issued.
func CreateAuditSnapshot(ctx context.Context, db *gorm.DB, snap *domain.AuditSnapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(snap).Error
}

// GetAuditSnapshotBySale fetches the most recent snapshot taken for saleID.
// Returns ErrNotFound when the sale was never deleted through the audited
// path.
func GetAuditSnapshotBySale(ctx context.Context, db *gorm.DB, saleID string) (*domain.AuditSnapshot, error) {
	var snap domain.AuditSnapshot
	err := db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("deleted_at desc").
		First(&snap).Error
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListAuditSnapshotsPage returns a page of snapshots filtered by category,
// newest deletions first. An empty category matches everything.
func ListAuditSnapshotsPage(ctx context.Context, db *gorm.DB, category string, offset, limit int) ([]domain.AuditSnapshot, error) {
	q := db.WithContext(ctx).Model(&domain.AuditSnapshot{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var out []domain.AuditSnapshot
	err := q.Order("deleted_at desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}
