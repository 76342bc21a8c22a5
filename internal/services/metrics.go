// Package services — Prometheus domain counters.
//
// These collectors measure the outcomes that matter operationally: how many
// notifications each scheduler tick created or skipped, how often entries
// failed, and how often ledger writes collided. HTTP-level metrics live in
// the middleware package; everything here is business-level.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// notificationsCreated counts notifications persisted by scheduler ticks.
	notificationsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_notifications_created_total",
		Help: "Total number of reminder notifications created.",
	})

	// notificationsSkipped counts due entries skipped because a notification
	// for the same (entry, day) already existed.
	notificationsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_notifications_skipped_total",
		Help: "Total number of duplicate reminder notifications skipped.",
	})

	// entriesFailed counts agenda entries whose processing failed during a tick.
	entriesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_entries_failed_total",
		Help: "Total number of agenda entries that failed during scheduler ticks.",
	})

	// ledgerConflicts counts optimistic-lock collisions on sale updates,
	// including ones resolved by the automatic retry.
	ledgerConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_version_conflicts_total",
		Help: "Total number of optimistic-lock conflicts on sale ledger updates.",
	})
)

func init() {
	prometheus.MustRegister(notificationsCreated, notificationsSkipped, entriesFailed, ledgerConflicts)
}
