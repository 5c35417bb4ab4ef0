// Package selection narrows the aggregated data sets to the month,
// week, or day the dashboard user is looking at. Malformed or empty
// keys fail open: the unfiltered input comes back unchanged rather than
// an error reaching the view layer.
package selection

import (
	"time"

	"github.com/agrosense/irrigation-server/internal/aggregation"
	"github.com/agrosense/irrigation-server/internal/calendar"
	"github.com/agrosense/irrigation-server/internal/telemetry"
)

// State is the dashboard's cursor into the aggregated data.
type State struct {
	MonthKey string
	WeekKey  string
	DayKey   string
}

// NewState returns the initial cursor: no month selected yet, day at
// the "current" sentinel.
func NewState() State {
	return State{DayKey: calendar.DaySentinelCurrent}
}

// MonthView is the slice of data belonging to one selected month.
type MonthView struct {
	Daily  []telemetry.FormattedReading
	Weekly []aggregation.DayBucket
}

// ByMonth narrows readings and day buckets to the given month key. An
// empty or malformed key returns the full sets unchanged.
func ByMonth(formatted []telemetry.FormattedReading, days []aggregation.DayBucket, monthKey string) MonthView {
	year, month, err := calendar.ParseMonthKey(monthKey)
	if err != nil {
		return MonthView{Daily: formatted, Weekly: days}
	}

	view := MonthView{
		Daily:  make([]telemetry.FormattedReading, 0),
		Weekly: make([]aggregation.DayBucket, 0),
	}
	for _, r := range formatted {
		if r.Year == year && r.Month == month {
			view.Daily = append(view.Daily, r)
		}
	}
	for _, d := range days {
		if d.Year == year && d.Month == month {
			view.Weekly = append(view.Weekly, d)
		}
	}
	return view
}

// ByDay narrows readings to one calendar day. The "current" sentinel
// means no day filter; an unmatched key yields an empty slice, which
// the view renders as an empty state.
func ByDay(daily []telemetry.FormattedReading, dayKey string) []telemetry.FormattedReading {
	if dayKey == "" || dayKey == calendar.DaySentinelCurrent {
		return daily
	}

	matched := make([]telemetry.FormattedReading, 0)
	for _, r := range daily {
		if calendar.DayKey(r.Date) == dayKey {
			matched = append(matched, r)
		}
	}
	return matched
}

// ByWeek narrows day buckets to one month-relative week. A malformed
// key returns the input unchanged.
func ByWeek(weekly []aggregation.DayBucket, weekKey string) []aggregation.DayBucket {
	year, month, week, err := calendar.ParseWeekKey(weekKey)
	if err != nil {
		return weekly
	}

	matched := make([]aggregation.DayBucket, 0)
	for _, d := range weekly {
		if d.Year == year && d.Month == month && d.MonthWeek == week {
			matched = append(matched, d)
		}
	}
	return matched
}

// DefaultMonthKey picks the initial month selection after a data load:
// the month containing now if any data falls in it, otherwise the most
// recent month with data. Empty data yields an empty key.
func DefaultMonthKey(days []aggregation.DayBucket, now time.Time) string {
	if len(days) == 0 {
		return ""
	}

	current := calendar.MonthKey(now)
	latest := ""
	for _, d := range days {
		key := calendar.MonthKey(d.Date)
		if key == current {
			return current
		}
		// Keys are zero-padded, so the lexicographic max is the latest.
		if key > latest {
			latest = key
		}
	}
	return latest
}
