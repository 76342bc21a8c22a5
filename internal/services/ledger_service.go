// Package services – LedgerService
//
// This file implements the LedgerService, which owns the arithmetic keeping a
// sale's paid/outstanding balance consistent with the payment state of its
// installments. The derived fields are always recomputed from first
// principles — the fixed deposit baseline plus the sum of paid installment
// amounts — rather than adjusted incrementally, so repeated toggles can never
// accumulate drift.
//
// Concurrency: the read-recompute-write cycle is guarded by an optimistic
// version check on the sale row. Conflicting writers serialize through a
// bounded in-service retry; toggles on installments of different sales never
// contend.
package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultLedgerRetries bounds the automatic optimistic-lock retry.
const defaultLedgerRetries = 3

// defaultEpsilon tolerates sub-cent rounding left over from sale creation
// when checking the schedule against the total price.
var defaultEpsilon = decimal.New(1, -2) // 0.01

// LedgerService implements the installment payment-state use-cases. It
// validates ledger invariants on every read and persists the installment flag
// together with the recomputed sale balances in a single transaction.
type LedgerService struct {
	// DB is the database handle used for all ledger operations.
	DB *gorm.DB

	// MaxRetries caps optimistic-lock retries. Values <= 0 default to 3.
	MaxRetries int

	// Epsilon overrides the rounding tolerance used by the integrity check.
	// A zero value defaults to 0.01.
	Epsilon decimal.Decimal
}

// SetInstallmentPaid updates the paid flag of installmentID and recomputes
// the parent sale's derived balances, atomically:
//
//	depositPaid        = depositBaseline + Σ(amount of paid installments)
//	outstandingBalance = max(0, totalPrice − depositPaid)
//
// Setting an already-paid installment to paid again is a no-op but still
// recomputes consistently, so the call is idempotent.
//
// Errors:
//   - ErrInstallmentNotFound when the installment does not exist.
//   - ErrDataIntegrity when the parent sale is missing or its total price is
//     inconsistent with the installment sum beyond the epsilon; nothing is
//     written in that case.
//   - ErrConcurrentModification when the bounded retry budget is exhausted.
//   - The raw DB error for unexpected failures.
//
// On success it returns the updated sale with installments ordered by
// sequence number ascending.
func (s *LedgerService) SetInstallmentPaid(ctx context.Context, installmentID string, paid bool) (*domain.Sale, error) {
	tr := otel.Tracer("services/LedgerService")
	ctx, span := tr.Start(ctx, "SetInstallmentPaid",
		trace.WithAttributes(
			attribute.String("installment.id", installmentID),
			attribute.Bool("installment.paid", paid),
		),
	)
	defer span.End()

	retries := s.MaxRetries
	if retries <= 0 {
		retries = defaultLedgerRetries
	}

	for attempt := 0; attempt < retries; attempt++ {
		sale, err := s.trySetPaid(ctx, installmentID, paid)
		if errors.Is(err, repo.ErrVersionConflict) {
			ledgerConflicts.Inc()
			continue
		}
		if err != nil {
			return nil, err
		}
		return sale, nil
	}
	return nil, ErrConcurrentModification
}

// trySetPaid performs one read-recompute-write attempt. A version conflict is
// reported as repo.ErrVersionConflict with the transaction rolled back, so
// the caller can re-read and retry.
func (s *LedgerService) trySetPaid(ctx context.Context, installmentID string, paid bool) (*domain.Sale, error) {
	inst, err := repo.GetInstallment(ctx, s.DB, installmentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInstallmentNotFound
		}
		return nil, err
	}

	sale, err := repo.GetSale(ctx, s.DB, inst.SaleID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// An installment without its parent is corrupted state, not a
			// caller mistake.
			return nil, ErrDataIntegrity
		}
		return nil, err
	}

	if err := s.checkIntegrity(sale); err != nil {
		return nil, err
	}

	depositPaid := sale.DepositBaseline
	for _, in := range sale.Installments {
		p := in.Paid
		if in.ID == installmentID {
			p = paid
		}
		if p {
			depositPaid = depositPaid.Add(in.Amount)
		}
	}
	outstanding := sale.TotalPrice.Sub(depositPaid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateInstallmentPaid(ctx, tx, installmentID, paid); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrInstallmentNotFound
			}
			return err
		}
		return repo.UpdateSaleLedger(ctx, tx, sale.ID, sale.Version, depositPaid, outstanding)
	})
	if err != nil {
		return nil, err
	}

	return repo.GetSale(ctx, s.DB, sale.ID)
}

// checkIntegrity verifies that the fixed deposit baseline plus the schedule
// still reconciles with the total price within the rounding epsilon, and that
// no structural invariant is broken. Violations abort the operation.
func (s *LedgerService) checkIntegrity(sale *domain.Sale) error {
	eps := s.Epsilon
	if eps.IsZero() {
		eps = defaultEpsilon
	}

	if sale.TotalPrice.IsNegative() || sale.DepositBaseline.IsNegative() {
		return ErrDataIntegrity
	}

	sum := decimal.Zero
	for _, in := range sale.Installments {
		if !in.Amount.IsPositive() {
			return ErrDataIntegrity
		}
		sum = sum.Add(in.Amount)
	}

	// baseline + Σ amounts must equal totalPrice up to rounding.
	diff := sale.TotalPrice.Sub(sale.DepositBaseline.Add(sum)).Abs()
	if diff.GreaterThan(eps) {
		return ErrDataIntegrity
	}
	return nil
}
