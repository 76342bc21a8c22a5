// Package services – SchedulerService
//
// This file implements the reminder scheduler tick. Invoked once per calendar
// day (extra invocations are safe), it selects active agenda entries with
// active reminders, applies the day-equality trigger test, and creates one
// durable notification per due entry. The (entry, day) uniqueness constraint
// in storage makes the create idempotent, so overlapping ticks cannot
// double-fire; a duplicate insert is reported as a skip, never as an error.
//
// Policy: a reminder fires only when its trigger date equals today. A missed
// daily run is not caught up retroactively.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TickSummary reports the outcome of one scheduler invocation. Failures of
// individual entries never abort the batch; each is recorded here instead.
type TickSummary struct {
	Day               string         `json:"day"`
	Examined          int            `json:"examined"`
	Created           int            `json:"created"`
	SkippedDuplicates int            `json:"skipped_duplicates"`
	Failed            int            `json:"failed"`
	Failures          []EntryFailure `json:"failures,omitempty"`
}

// EntryFailure identifies one agenda entry that could not be processed and
// the cause, so operators can follow up without digging through logs.
type EntryFailure struct {
	AgendaEntryID string `json:"agenda_entry_id"`
	Cause         string `json:"cause"`
}

// SchedulerService owns the daily reminder tick. It is stateless between
// invocations; everything it reads and writes is durable.
type SchedulerService struct {
	// DB is the database handle used for candidate selection and inserts.
	DB *gorm.DB

	// Loc is the single operating time zone for day arithmetic. Nil defaults
	// to the process-local zone.
	Loc *time.Location

	// Now supplies the current time; injected so tests pin fixed dates.
	// Nil defaults to time.Now.
	Now func() time.Time

	// TitleLocale selects the casing rules for notification titles.
	TitleLocale language.Tag
}

// Today returns the current calendar day in the operating zone.
func (s *SchedulerService) Today() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return domain.DayOf(now(), s.Loc)
}

// ProcessDueReminders runs one scheduler tick for the given day.
//
// Steps, per the state machine {not-due, due-unfired, fired}:
//  1. Select all active entries with active reminders.
//  2. For each, compute triggerDate = date(occursAt) − daysBefore and test
//     triggerDate == today by day equality.
//  3. For due entries, create the notification unless one already exists for
//     (entry, today); duplicates are counted as skips.
//  4. A failure on one entry is recorded and processing continues.
//
// The returned error is non-nil only when candidate selection itself fails;
// per-entry failures live in the summary.
func (s *SchedulerService) ProcessDueReminders(ctx context.Context, today time.Time) (*TickSummary, error) {
	today = domain.DayOf(today, s.Loc)
	dayKey := domain.DayKey(today, s.Loc)

	tr := otel.Tracer("services/SchedulerService")
	ctx, span := tr.Start(ctx, "ProcessDueReminders",
		trace.WithAttributes(attribute.String("tick.day", dayKey)),
	)
	defer span.End()

	candidates, err := repo.ListReminderCandidates(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	sum := &TickSummary{Day: dayKey}
	for _, entry := range candidates {
		sum.Examined++
		created, skipped, perr := s.processEntry(ctx, entry, today, dayKey)
		switch {
		case perr != nil:
			entriesFailed.Inc()
			sum.Failed++
			sum.Failures = append(sum.Failures, EntryFailure{
				AgendaEntryID: entry.ID,
				Cause:         perr.Error(),
			})
		case created:
			notificationsCreated.Inc()
			sum.Created++
		case skipped:
			notificationsSkipped.Inc()
			sum.SkippedDuplicates++
		}
	}

	span.SetAttributes(
		attribute.Int("tick.examined", sum.Examined),
		attribute.Int("tick.created", sum.Created),
		attribute.Int("tick.skipped", sum.SkippedDuplicates),
		attribute.Int("tick.failed", sum.Failed),
	)
	return sum, nil
}

// processEntry applies the trigger test to one candidate and, when due,
// performs the idempotent notification create. The insert itself is a single
// row write, so each entry's effect is atomic on its own.
func (s *SchedulerService) processEntry(ctx context.Context, entry domain.AgendaEntry, today time.Time, dayKey string) (created, skipped bool, err error) {
	if entry.Reminder == nil {
		return false, false, ErrDataIntegrity
	}
	if entry.OccursAt.IsZero() {
		return false, false, ErrDataIntegrity
	}

	days := domain.ClampDaysBefore(entry.Reminder.DaysBefore)
	trigger := domain.TriggerDate(entry.OccursAt, days, s.Loc)
	if !trigger.Equal(today) {
		// Strictly-past trigger dates are deliberately not fired.
		return false, false, nil
	}

	exists, err := repo.NotificationExists(ctx, s.DB, entry.ID, dayKey)
	if err != nil {
		return false, false, err
	}
	if exists {
		return false, true, nil
	}

	msg := s.buildMessage(entry.Title, days)
	if _, err := repo.CreateNotification(ctx, s.DB, entry.OwnerID, entry.ID, dayKey, msg); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// A concurrent tick won the race; that is a skip, not a failure.
			return false, true, nil
		}
		return false, false, err
	}
	return true, false, nil
}

// buildMessage renders the notification text from the agenda title and the
// number of days remaining until the event.
func (s *SchedulerService) buildMessage(title string, daysBefore int) string {
	title = normalizeTitle(title)
	if title == "" {
		title = "Agenda entry"
	} else {
		loc := s.TitleLocale
		if loc == language.Und {
			loc = language.English
		}
		title = cases.Title(loc).String(title)
	}
	if daysBefore == 0 {
		return fmt.Sprintf("Reminder: %q is today", title)
	}
	if daysBefore == 1 {
		return fmt.Sprintf("Reminder: %q is tomorrow", title)
	}
	return fmt.Sprintf("Reminder: %q is in %d days", title, daysBefore)
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
