// Reminder HTTP handlers.
//
// This file exposes the on-demand trigger for the daily reminder sweep:
//   - POST /reminders/run
//
// The sweep is also driven by the in-process worker; this endpoint exists for
// operators and for cron-style external schedulers. Both paths funnel into the
// same service, so duplicate suppression holds regardless of who triggers it.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RunRemindersRequest is the optional JSON payload for a manual sweep.
type RunRemindersRequest struct {
	// Day overrides the sweep day (YYYY-MM-DD, interpreted in the operating
	// timezone). Empty means "today".
	Day string `json:"day" example:"2025-10-24"`
}

// RunReminders godoc
// @ID          runReminders
// @Summary     Run the reminder sweep
// @Description Examines all active reminder policies and creates notifications for those
// @Description whose trigger day equals the sweep day. Safe to call repeatedly: already
// @Description fired (entry, day) pairs are skipped. Individual entry failures do not
// @Description abort the sweep; they are reported in the summary.
// @Tags        Reminders
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RunRemindersRequest  false  "Optional sweep day override"
//
// @Success     200  {object}  services.TickSummary  "Sweep summary"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /reminders/run [post]
func (h *Handlers) RunReminders(c *gin.Context) {
	day := h.remSvc.Today()

	var req RunRemindersRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Day != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Day, day.Location())
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "day must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	sum, err := h.remSvc.ProcessDueReminders(c.Request.Context(), day)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}
