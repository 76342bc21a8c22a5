// Package services defines the business logic for the installment ledger,
// the reminder scheduler, and the deletion audit. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Ledger-related errors.
var (
	// ErrInstallmentNotFound indicates that the referenced installment does
	// not exist.
	ErrInstallmentNotFound = errors.New("installment not found")

	// ErrSaleNotFound indicates that the referenced sale does not exist.
	ErrSaleNotFound = errors.New("sale not found")

	// ErrDataIntegrity is returned when invariants are found broken on read:
	// a missing parent sale, or a total price inconsistent with the
	// installment sum beyond the rounding epsilon. The operation is aborted
	// and nothing is written; broken state is never silently repaired.
	ErrDataIntegrity = errors.New("ledger data integrity violation")

	// ErrConcurrentModification is returned after the bounded optimistic-lock
	// retry budget is exhausted. The caller may retry the whole operation.
	ErrConcurrentModification = errors.New("concurrent modification of sale")
)

// Scheduler / notification errors.
var (
	// ErrNotificationNotFound indicates that the requested notification does
	// not exist or does not belong to the current recipient.
	ErrNotificationNotFound = errors.New("notification not found")
)

// Audit-related errors.
var (
	// ErrInvalidCategory is returned when a deletion audit is requested
	// without the sale-category tag the snapshot must carry.
	ErrInvalidCategory = errors.New("audit category must not be empty")
)
