// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Sale and
// Installment models.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Ledger arithmetic lives in
// services.LedgerService.
//
// Error semantics:
//   - When a sale or installment is not found, functions return
//     gorm.ErrRecordNotFound (also exported here as ErrNotFound).
//   - UpdateSaleLedger returns ErrVersionConflict when the optimistic-lock
//     version check fails; the service layer retries a bounded number of times.
//   - On other DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrVersionConflict indicates that a sale row was modified by a concurrent
// writer between the read and the conditional update.
var ErrVersionConflict = errors.New("sale version conflict")

// CreateSale inserts a sale together with its installment schedule. The
// sale-creation flow (out of scope for the ledger core) and tests use it to
// establish the deposit baseline and the schedule in one write.
func CreateSale(ctx context.Context, db *gorm.DB, s *domain.Sale) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	return db.WithContext(ctx).Create(s).Error
}

// GetSale fetches a sale by ID with its installments ordered by sequence
// number ascending. Returns ErrNotFound if the sale does not exist.
func GetSale(ctx context.Context, db *gorm.DB, id string) (*domain.Sale, error) {
	var s domain.Sale
	err := db.WithContext(ctx).
		Preload("Installments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sequence_number asc")
		}).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetInstallment fetches a single installment by ID. Returns ErrNotFound if
// the installment does not exist.
func GetInstallment(ctx context.Context, db *gorm.DB, id string) (*domain.Installment, error) {
	var in domain.Installment
	err := db.WithContext(ctx).Where("id = ?", id).First(&in).Error
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// UpdateInstallmentPaid sets the paid flag of an installment. If no rows are
// affected (installment missing), it returns ErrNotFound. The update is
// unconditional on the current flag value so repeated toggles stay idempotent.
func UpdateInstallmentPaid(ctx context.Context, db *gorm.DB, id string, paid bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Installment{}).
		Where("id = ?", id).
		Updates(map[string]any{"paid": paid, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateSaleLedger conditionally writes the recomputed derived fields of a
// sale. The update only applies when the row still carries the version the
// caller read; otherwise ErrVersionConflict is returned and no state changes.
// On success the version counter is bumped, so any concurrent writer that
// read the same version will fail its own update.
func UpdateSaleLedger(ctx context.Context, db *gorm.DB, id string, version int64, depositPaid, outstanding decimal.Decimal) error {
	res := db.WithContext(ctx).
		Model(&domain.Sale{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"deposit_paid":        depositPaid,
			"outstanding_balance": outstanding,
			"version":             version + 1,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// DeleteSale removes a sale row and, through the schema's cascade constraint,
// its installments. If no rows are affected, it returns ErrNotFound.
func DeleteSale(ctx context.Context, db *gorm.DB, id string) error {
	// Explicit child delete keeps behavior correct even when the SQLite file
	// predates the foreign-key constraint.
	if err := db.WithContext(ctx).Where("sale_id = ?", id).Delete(&domain.Installment{}).Error; err != nil {
		return err
	}
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Sale{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountSales returns the total number of sales owned by customerID.
func CountSales(ctx context.Context, db *gorm.DB, customerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Sale{}).
		Where("customer_id = ?", customerID).
		Count(&total).Error
	return total, err
}
