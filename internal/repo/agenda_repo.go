// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-only repository functions for the
// AgendaEntry and Reminder models. The scheduler never mutates agenda state;
// the agenda UI owns those writes.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
)

// ListReminderCandidates returns every agenda entry that is active and has an
// active reminder attached, with the reminder preloaded. This is the
// candidate-selection step of the scheduler tick; the per-entry due test
// happens in the service layer.
//
// Ordering by entry ID keeps tick runs deterministic, which makes failure
// summaries reproducible.
func ListReminderCandidates(ctx context.Context, db *gorm.DB) ([]domain.AgendaEntry, error) {
	var out []domain.AgendaEntry
	err := db.WithContext(ctx).
		Joins("JOIN reminders ON reminders.agenda_entry_id = agenda_entries.id AND reminders.active = ?", true).
		Where("agenda_entries.active = ?", true).
		Preload("Reminder").
		Order("agenda_entries.id asc").
		Find(&out).Error
	return out, err
}

// GetAgendaEntry fetches a single agenda entry by ID with its reminder
// preloaded. Returns ErrNotFound if the entry does not exist.
func GetAgendaEntry(ctx context.Context, db *gorm.DB, id string) (*domain.AgendaEntry, error) {
	var e domain.AgendaEntry
	err := db.WithContext(ctx).
		Preload("Reminder").
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}
