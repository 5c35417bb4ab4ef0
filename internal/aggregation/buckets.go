// Package aggregation reduces formatted soil readings into day and
// month-week buckets. Aggregation is two-stage: raw readings average
// into day buckets, and day buckets average into month-week buckets, so
// each day contributes exactly once to its week regardless of how many
// readings it holds.
package aggregation

import (
	"sort"
	"time"

	"github.com/agrosense/irrigation-server/internal/calendar"
	"github.com/agrosense/irrigation-server/internal/telemetry"
)

// DayBucket is the arithmetic mean of all readings on one calendar day.
// The calendar fields are copied from the day's first reading.
type DayBucket struct {
	DayKey    string
	Date      time.Time
	Moisture1 float64
	Moisture2 float64
	Count     int

	Year      int
	Month     time.Month
	MonthName string
	ISOWeek   int
	MonthWeek int
	Day       int
}

// MonthWeekBucket is the mean of the day-bucket means sharing one
// month-relative week.
type MonthWeekBucket struct {
	WeekKey   string
	Year      int
	Month     time.Month
	MonthWeek int
	Moisture1 float64
	Moisture2 float64
	DayCount  int
}

// ToDayBuckets groups formatted readings by calendar day and averages
// each moisture channel. Input is expected sorted ascending (the
// formatter guarantees it); buckets come out in day order. Empty input
// yields an empty slice.
func ToDayBuckets(formatted []telemetry.FormattedReading) []DayBucket {
	byDay := make(map[string]*DayBucket)
	order := make([]string, 0)

	for _, r := range formatted {
		key := calendar.DayKey(r.Date)
		bucket, ok := byDay[key]
		if !ok {
			bucket = &DayBucket{
				DayKey:    key,
				Date:      r.Date,
				Year:      r.Year,
				Month:     r.Month,
				MonthName: r.MonthName,
				ISOWeek:   r.ISOWeek,
				MonthWeek: r.MonthWeek,
				Day:       r.Day,
			}
			byDay[key] = bucket
			order = append(order, key)
		}

		bucket.Moisture1 += r.Moisture1
		bucket.Moisture2 += r.Moisture2
		bucket.Count++
	}

	buckets := make([]DayBucket, 0, len(order))
	for _, key := range order {
		b := byDay[key]
		b.Moisture1 /= float64(b.Count)
		b.Moisture2 /= float64(b.Count)
		buckets = append(buckets, *b)
	}

	return buckets
}

type monthWeekKey struct {
	year  int
	month time.Month
	week  int
}

// ToMonthWeekBuckets groups day buckets by (year, month, month-week)
// and averages the day means. Each day weighs equally; a day with one
// reading counts the same as a day with fifty.
func ToMonthWeekBuckets(days []DayBucket) []MonthWeekBucket {
	byWeek := make(map[monthWeekKey]*MonthWeekBucket)

	for _, d := range days {
		key := monthWeekKey{year: d.Year, month: d.Month, week: d.MonthWeek}
		bucket, ok := byWeek[key]
		if !ok {
			bucket = &MonthWeekBucket{
				WeekKey:   calendar.WeekKey(d.Year, d.Month, d.MonthWeek),
				Year:      d.Year,
				Month:     d.Month,
				MonthWeek: d.MonthWeek,
			}
			byWeek[key] = bucket
		}

		bucket.Moisture1 += d.Moisture1
		bucket.Moisture2 += d.Moisture2
		bucket.DayCount++
	}

	buckets := make([]MonthWeekBucket, 0, len(byWeek))
	for _, b := range byWeek {
		b.Moisture1 /= float64(b.DayCount)
		b.Moisture2 /= float64(b.DayCount)
		buckets = append(buckets, *b)
	}

	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.MonthWeek < b.MonthWeek
	})

	return buckets
}
