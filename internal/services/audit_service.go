// Package services – AuditService
//
// This file implements the deletion audit: before a sale is destroyed, a
// snapshot of its full ledger state (including the installment schedule) is
// written. Snapshot and delete run in one transaction with the snapshot
// issued first, so no reader can ever observe the sale gone without its
// snapshot existing. If the snapshot write fails, the delete does not happen:
// an orphaned, undeleted record beats silent data loss.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AuditService implements audited sale deletion.
type AuditService struct {
	// DB is the database handle used for the snapshot-then-delete unit.
	DB *gorm.DB

	// Now supplies the deletion timestamp; injected for deterministic tests.
	// Nil defaults to time.Now.
	Now func() time.Time
}

// DeleteSale snapshots and then deletes the sale identified by saleID,
// tagging the snapshot with the sale's category (e.g. "ticket", "tour").
//
// Errors:
//   - ErrInvalidCategory when category is blank.
//   - ErrSaleNotFound when the sale does not exist; nothing is written.
//   - The raw DB error on snapshot or delete failure; the transaction rolls
//     back and the sale remains untouched.
//
// On success it returns the persisted snapshot.
func (s *AuditService) DeleteSale(ctx context.Context, saleID, category string) (*domain.AuditSnapshot, error) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "DeleteSale",
		trace.WithAttributes(
			attribute.String("sale.id", saleID),
			attribute.String("audit.category", category),
		),
	)
	defer span.End()

	category = strings.TrimSpace(category)
	if category == "" {
		return nil, ErrInvalidCategory
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	var snap *domain.AuditSnapshot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := repo.GetSale(ctx, tx, saleID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrSaleNotFound
			}
			return err
		}

		schedule, err := json.Marshal(sale.Installments)
		if err != nil {
			return err
		}

		snap = &domain.AuditSnapshot{
			ID:                 uuid.NewString(),
			SaleID:             sale.ID,
			Category:           category,
			CustomerID:         sale.CustomerID,
			Description:        sale.Description,
			TotalPrice:         sale.TotalPrice,
			DepositBaseline:    sale.DepositBaseline,
			DepositPaid:        sale.DepositPaid,
			OutstandingBalance: sale.OutstandingBalance,
			Installments:       string(schedule),
			DeletedAt:          now().UTC(),
		}

		// Snapshot first; a failure here aborts the delete entirely.
		if err := repo.CreateAuditSnapshot(ctx, tx, snap); err != nil {
			return err
		}
		return repo.DeleteSale(ctx, tx, saleID)
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
