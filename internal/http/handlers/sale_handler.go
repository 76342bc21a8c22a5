// Sale HTTP handlers.
//
// This file exposes REST endpoints for sale resources:
//   - GET    /sales/{id}   (detail with schedule, ETag support)
//   - DELETE /sales/{id}   (audited delete; snapshot persisted before removal)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/repo"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/services"
)

// DeleteSaleResponse wraps the audit snapshot persisted by a delete.
type DeleteSaleResponse struct {
	// Snapshot is the durable record of the sale's final state.
	Snapshot *domain.AuditSnapshot `json:"snapshot"`
}

// GetSale godoc
// @ID          getSale
// @Summary     Get a sale with its installment schedule
// @Description Returns the sale's balances and ordered installments. Supports weak ETag
// @Description via If-None-Match and may return 304.
// @Tags        Sales
// @Produce     json
//
// @Param       id             path    string  true  "Sale ID (UUID)"  format(uuid)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {object} domain.Sale
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Sale not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sales/{id} [get]
func (h *Handlers) GetSale(c *gin.Context) {
	ctx := c.Request.Context()
	saleID := c.Param("id")

	if _, err := uuid.Parse(saleID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "sale id must be a UUID")
		return
	}

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.ledgerSvc.(*services.LedgerService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.SaleStats(ctx, db, saleID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"sale:%s:%d:%d"`, saleID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}

		sale, err := repo.GetSale(ctx, db, saleID)
		if err != nil {
			if err == repo.ErrNotFound {
				fail(c, http.StatusNotFound, ErrCodeNotFound, "sale not found")
				return
			}
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
		ok(c, http.StatusOK, sale)
		return
	}

	fail(c, http.StatusInternalServerError, ErrCodeInternal, "sale storage unavailable")
}

// DeleteSale godoc
// @ID          deleteSale
// @Summary     Delete a sale with an audit snapshot
// @Description Persists a durable snapshot of the sale's final state (balances plus the
// @Description full installment schedule) and then deletes the sale and its installments
// @Description atomically. If the snapshot cannot be written, the delete does not happen.
// @Tags        Sales
// @Produce     json
//
// @Param       id        path   string  true  "Sale ID (UUID)"  format(uuid)
// @Param       category  query  string  true  "Sale category recorded on the snapshot"  example(tour)
//
// @Success     200  {object} handlers.DeleteSaleResponse "Persisted snapshot"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Sale not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sales/{id} [delete]
func (h *Handlers) DeleteSale(c *gin.Context) {
	saleID := c.Param("id")
	if _, err := uuid.Parse(saleID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "sale id must be a UUID")
		return
	}

	category := strings.TrimSpace(c.Query("category"))

	snap, err := h.auditSvc.DeleteSale(c.Request.Context(), saleID, category)
	if err != nil {
		switch err {
		case services.ErrInvalidCategory:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category required")
		case services.ErrSaleNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "sale not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, DeleteSaleResponse{Snapshot: snap})
}
