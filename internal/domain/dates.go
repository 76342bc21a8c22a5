// Package domain — calendar-day helpers.
//
// The reminder scheduler works at day granularity in a single operating time
// zone. All due-date arithmetic goes through these helpers so that "strip the
// time of day" and "subtract N calendar days" are defined in exactly one
// place. Subtraction uses AddDate, not a 24h multiple, so results are stable
// across daylight-saving transitions.
package domain

import "time"

// DayKeyLayout is the canonical YYYY-MM-DD format used for Notification
// fire-date keys and day-equality comparisons.
const DayKeyLayout = "2006-01-02"

// DayOf normalizes t to midnight of its calendar day in loc. A nil loc
// defaults to the local operating zone.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// TriggerDate returns the calendar day on which a reminder with the given
// daysBefore policy should fire for an event occurring at occursAt.
func TriggerDate(occursAt time.Time, daysBefore int, loc *time.Location) time.Time {
	return DayOf(occursAt, loc).AddDate(0, 0, -daysBefore)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayOf(a, loc).Equal(DayOf(b, loc))
}

// DayKey renders the calendar day of t in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return DayOf(t, loc).Format(DayKeyLayout)
}

// ClampDaysBefore forces a reminder offset into the supported [0,5] window.
// Out-of-range values can only come from historical rows written before the
// check constraint existed; they are clamped on read, never rewritten.
func ClampDaysBefore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 5 {
		return 5
	}
	return n
}
