// Package worker runs the in-process reminder sweep loop. It wakes on a fixed
// interval, asks the scheduler service for "today" in the operating timezone,
// and processes due reminders. Duplicate suppression lives in the database, so
// overlapping ticks (or an external cron hitting the HTTP trigger at the same
// time) never double-fire.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/services"
)

// Sweeper is the slice of the scheduler service the worker depends on.
type Sweeper interface {
	Today() time.Time
	ProcessDueReminders(ctx context.Context, today time.Time) (*services.TickSummary, error)
}

// Ticker drives periodic reminder sweeps until its context is cancelled.
type Ticker struct {
	svc      Sweeper
	interval time.Duration
}

// NewTicker returns a Ticker sweeping via svc every interval. Intervals
// below one second are raised to one second.
func NewTicker(svc Sweeper, interval time.Duration) *Ticker {
	if interval < time.Second {
		interval = time.Second
	}
	return &Ticker{svc: svc, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// It never returns an error: a failed sweep is logged and retried on the next
// tick.
func (w *Ticker) Run(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("reminder worker started")

	w.sweep(ctx)

	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reminder worker stopped")
			return
		case <-t.C:
			w.sweep(ctx)
		}
	}
}

func (w *Ticker) sweep(ctx context.Context) {
	today := w.svc.Today()
	sum, err := w.svc.ProcessDueReminders(ctx, today)
	if err != nil {
		log.Error().Err(err).Str("day", today.Format("2006-01-02")).Msg("reminder sweep failed")
		return
	}
	evt := log.Info()
	if sum.Failed > 0 {
		evt = log.Warn()
	}
	evt.
		Str("day", sum.Day).
		Int("examined", sum.Examined).
		Int("created", sum.Created).
		Int("skipped_duplicates", sum.SkippedDuplicates).
		Int("failed", sum.Failed).
		Msg("reminder sweep finished")
}
