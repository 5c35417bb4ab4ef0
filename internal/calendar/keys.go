// Package calendar derives the calendar keys used to bucket soil
// readings: ISO week-of-year, month-relative week number, and the
// stable string keys the dashboard selects on.
//
// All day boundaries are taken in UTC so a key is stable for a single
// install regardless of where a reading was produced.
//
// The month-relative week offset is the raw weekday of the 1st of the
// month with Sunday=0. A month starting on a Sunday therefore has a
// zero offset and its first seven days all land in week 1.
package calendar

import (
	"fmt"
	"time"
)

// DaySentinelCurrent is the day-key value meaning "no day filter".
const DaySentinelCurrent = "current"

// ISOWeek returns the ISO-8601 week-of-year for t: Monday-start weeks,
// week 1 is the week containing the first Thursday of the year.
func ISOWeek(t time.Time) int {
	_, week := t.UTC().ISOWeek()
	return week
}

// MonthWeek returns the 1-based week number of t within its month,
// counting from the 1st. Always >= 1 and a pure function of the
// calendar date.
func MonthWeek(t time.Time) int {
	t = t.UTC()
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	offset := int(firstOfMonth.Weekday()) // Sunday=0
	return (t.Day() + offset + 6) / 7
}

// DayKey returns the canonical per-day key for t ("2006-01-02", UTC).
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthKey returns the key identifying t's calendar month ("2006-01").
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// WeekKey builds the selection key for a month-relative week,
// e.g. "2025-06-Week2". Month is 1-based.
func WeekKey(year int, month time.Month, week int) string {
	return fmt.Sprintf("%04d-%02d-Week%d", year, month, week)
}

// MonthName returns the English month name for t.
func MonthName(t time.Time) string {
	return t.UTC().Month().String()
}

// FormatClock renders the display time of a reading ("15:04").
func FormatClock(t time.Time) string {
	return t.UTC().Format("15:04")
}

// FormatDate renders the display date of a reading ("Jan 2, 2006").
func FormatDate(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006")
}

// ParseMonthKey parses a MonthKey back into year and month.
func ParseMonthKey(key string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month key %q: %w", key, err)
	}
	return t.Year(), t.Month(), nil
}

// ParseWeekKey parses a WeekKey of the form "{year}-{month}-Week{n}".
func ParseWeekKey(key string) (year int, month time.Month, week int, err error) {
	var m int
	if _, err = fmt.Sscanf(key, "%4d-%2d-Week%d", &year, &m, &week); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid week key %q: %w", key, err)
	}
	if m < 1 || m > 12 || week < 1 {
		return 0, 0, 0, fmt.Errorf("invalid week key %q: out of range", key)
	}
	return year, time.Month(m), week, nil
}
