// Package recurrence holds the date arithmetic and the generate-once step
// shared by every recurring obligation: payment schedules and reminders.
package recurrence

import (
	"context"
	"fmt"
	"time"
)

// Frequency is the interval unit a series advances by.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	BiWeekly  Frequency = "bi_weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Annual    Frequency = "annual"
)

// Frequencies lists every supported frequency.
var Frequencies = []Frequency{Weekly, BiWeekly, Monthly, Quarterly, Annual}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// Advance returns the due date that follows from.
//
// Month based frequencies land on anchorDay of the target month, clamped to
// the month's last day: 2024-01-31 + 1 month is 2024-02-29, and with anchor
// 31 the next step is 2024-03-31 again. An anchorDay of 0 uses from's day.
func (f Frequency) Advance(from time.Time, anchorDay int) (time.Time, error) {
	switch f {
	case Weekly:
		return from.AddDate(0, 0, 7), nil
	case BiWeekly:
		return from.AddDate(0, 0, 14), nil
	case Monthly:
		return AddMonths(from, 1, anchorDay), nil
	case Quarterly:
		return AddMonths(from, 3, anchorDay), nil
	case Annual:
		return AddMonths(from, 12, anchorDay), nil
	default:
		return time.Time{}, fmt.Errorf("unknown frequency %q", f)
	}
}

// AddMonths adds months to t without overflowing into the following month.
func AddMonths(t time.Time, months, anchorDay int) time.Time {
	day := anchorDay
	if day <= 0 {
		day = t.Day()
	}

	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}

	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOf truncates t to midnight UTC of its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalendarDate keeps the calendar day t falls on in its own location and
// returns it as midnight UTC. Due dates supplied by callers go through it, so
// 2024-03-01T18:00-08:00 is due on 2024-03-01. Instants such as clock
// readings use DateOf.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from from to to. Negative when to is earlier.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// WindowOpen reports whether an occurrence due on nextDue should be
// materialized as of asOf, given leadDays of advance generation.
func WindowOpen(nextDue time.Time, leadDays int, asOf time.Time) bool {
	opens := DateOf(nextDue).AddDate(0, 0, -leadDays)
	return !opens.After(DateOf(asOf))
}

// Series is the recurring part of a schedule or reminder.
type Series struct {
	Frequency Frequency
	AnchorDay int
	NextDue   time.Time
	LeadDays  int
}

// Due reports whether the series' next occurrence is inside its window.
func (s Series) Due(asOf time.Time) bool {
	return WindowOpen(s.NextDue, s.LeadDays, asOf)
}

// Hooks bind a Series to its storage.
type Hooks struct {
	// Exists reports whether the occurrence for due was already materialized.
	Exists func(ctx context.Context, due time.Time) (bool, error)
	// Create materializes the occurrence for due.
	Create func(ctx context.Context, due time.Time) error
	// Advance persists next as the series' new due date.
	Advance func(ctx context.Context, next time.Time) error
}

// Step materializes the series' current occurrence at most once and moves
// the series forward. When Exists reports the occurrence already present,
// Create is skipped but the series still advances so it cannot stall on a
// date that was handled elsewhere. Callers run Step inside one transaction.
func (s Series) Step(ctx context.Context, hooks Hooks) (created bool, next time.Time, err error) {
	due := DateOf(s.NextDue)

	next, err = s.Frequency.Advance(due, s.AnchorDay)
	if err != nil {
		return false, time.Time{}, err
	}

	exists, err := hooks.Exists(ctx, due)
	if err != nil {
		return false, time.Time{}, err
	}

	if !exists {
		if err := hooks.Create(ctx, due); err != nil {
			return false, time.Time{}, err
		}
		created = true
	}

	if err := hooks.Advance(ctx, next); err != nil {
		return false, time.Time{}, err
	}

	return created, next, nil
}
