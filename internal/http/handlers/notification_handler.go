// Notification HTTP handlers.
//
// This file exposes the notification feed created by the reminder sweep:
//   - GET /notifications           (list, paginated, ETag support)
//   - PUT /notifications/{id}/read (mark read)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/repo"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/services"
)

// ListNotificationsResponse wraps a page of notifications and pagination
// information.
type ListNotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Pagination    Pagination            `json:"pagination"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List notifications (paginated)
// @Description Returns a page of the current user's notifications, newest first.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListNotificationsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.notifSvc.(*services.NotificationService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.NotificationsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"notifications:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.notifSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListNotificationsResponse{
		Notifications: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark a notification as read
// @Description Flags the notification as read. Only the recipient can mark it.
// @Tags        Notifications
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"     example(user123)
// @Param       id         path    string  true  "Notification ID (UUID)"    format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Notification not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /notifications/{id}/read [put]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	notificationID := c.Param("id")
	if _, err := uuid.Parse(notificationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "notification id must be a UUID")
		return
	}

	if err := h.notifSvc.MarkRead(c.Request.Context(), userID(c), notificationID); err != nil {
		switch err {
		case services.ErrNotificationNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "notification not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	noContent(c)
}
