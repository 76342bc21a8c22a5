// Installment ledger HTTP handlers.
//
// This file exposes the REST endpoint for toggling an installment's paid flag:
//   - PUT /installments/{id}/paid
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Idempotency semantics: when the
// client supplies an Idempotency-Key header and a previous successful result
// exists for (user, installment, key), the handler returns the recorded sale
// state and sets `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/repo"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/services"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/sysutil"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/utils"
)

//
// Service contracts (context-aware)
//

// LedgerService defines the installment toggle operation consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type LedgerService interface {
	// SetInstallmentPaid sets the paid flag on an installment and returns the
	// recomputed parent sale.
	SetInstallmentPaid(ctx context.Context, installmentID string, paid bool) (*domain.Sale, error)
}

// ReminderService defines the on-demand reminder sweep consumed by HTTP
// handlers.
type ReminderService interface {
	// Today returns the current calendar day in the operating timezone.
	Today() time.Time
	// ProcessDueReminders sweeps active reminder policies for the given day.
	ProcessDueReminders(ctx context.Context, today time.Time) (*services.TickSummary, error)
}

// SaleAuditService defines audited sale deletion consumed by HTTP handlers.
type SaleAuditService interface {
	// DeleteSale snapshots then deletes a sale, returning the snapshot.
	DeleteSale(ctx context.Context, saleID, category string) (*domain.AuditSnapshot, error)
}

// NotificationService defines the notification feed operations consumed by
// HTTP handlers.
type NotificationService interface {
	// ListPage returns a page of a recipient's notifications and the total.
	ListPage(ctx context.Context, recipientID string, page, pageSize int) ([]domain.Notification, int64, error)
	// MarkRead flags a notification as read for the recipient.
	MarkRead(ctx context.Context, recipientID, notificationID string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for the ledger, reminders, sales, and
// notifications. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	ledgerSvc LedgerService
	remSvc    ReminderService
	auditSvc  SaleAuditService
	notifSvc  NotificationService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(ledgerSvc LedgerService, remSvc ReminderService, auditSvc SaleAuditService, notifSvc NotificationService) *Handlers {
	return &Handlers{ledgerSvc: ledgerSvc, remSvc: remSvc, auditSvc: auditSvc, notifSvc: notifSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	var fromCtx, fromHeader string
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			fromCtx = s
		}
	}
	if c != nil && c.Request != nil {
		fromHeader = strings.TrimSpace(c.GetHeader("X-User-ID"))
	}
	return sysutil.FirstNonEmpty(fromCtx, fromHeader, "demo-user")
}

//
// DTOs
//

// SetInstallmentPaidRequest is the JSON payload for toggling an installment.
type SetInstallmentPaidRequest struct {
	// Paid is the desired state of the installment's paid flag.
	Paid *bool `json:"paid" binding:"required" example:"true"`
}

// SetInstallmentPaidResponse wraps the recomputed sale ledger.
type SetInstallmentPaidResponse struct {
	// Sale is the parent sale with refreshed balances and schedule.
	Sale *domain.Sale `json:"sale"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// idempotencyKeyFrom extracts an idempotency key if present on the request.
func idempotencyKeyFrom(c *gin.Context) (string, bool) {
	if v := strings.TrimSpace(c.GetHeader("Idempotency-Key")); v != "" {
		return v, true
	}
	return "", false
}

//
// Handlers
//

// SetInstallmentPaid godoc
// @ID          setInstallmentPaid
// @Summary     Toggle an installment's paid flag
// @Description Sets the paid state of an installment and recomputes the parent sale's
// @Description deposit and outstanding balance. Supports idempotency via the
// @Description Idempotency-Key header (same key → same result).
// @Tags        Installments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Installment ID (UUID)"  format(uuid)
// @Param       body             body    handlers.SetInstallmentPaidRequest  true  "Desired paid state"
//
// @Success     200  {object}  handlers.SetInstallmentPaidResponse  "Recomputed sale"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Installment not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Concurrent modification"
// @Failure     422  {object}  handlers.ErrorResponse  "Ledger integrity violation"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /installments/{id}/paid [put]
func (h *Handlers) SetInstallmentPaid(c *gin.Context) {
	ctx := c.Request.Context()
	installmentID := c.Param("id")

	if _, err := uuid.Parse(installmentID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "installment id must be a UUID")
		return
	}

	var req SetInstallmentPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Paid == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "paid flag required")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := idempotencyKeyFrom(c)
	if idemKey != "" {
		if svc, okSvc := h.ledgerSvc.(*services.LedgerService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, installmentID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetSale(ctx, svc.DB, rec.SaleID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, SetInstallmentPaidResponse{Sale: prev})
					return
				}
			}
		}
	}

	sale, err := h.ledgerSvc.SetInstallmentPaid(ctx, installmentID, *req.Paid)
	if err != nil {
		switch err {
		case services.ErrInstallmentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "installment not found")
		case services.ErrConcurrentModification:
			fail(c, http.StatusConflict, ErrCodeVersionConflict, "sale was modified concurrently; retry the request")
		case services.ErrDataIntegrity:
			fail(c, http.StatusUnprocessableEntity, ErrCodeIntegrityViolation, "installment schedule does not reconcile with the sale total")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.ledgerSvc.(*services.LedgerService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, installmentID, idemKey, sale.ID, http.StatusOK, ttl)
		}
	}

	ok(c, http.StatusOK, SetInstallmentPaidResponse{Sale: sale})
}
