package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestISOWeek(t *testing.T) {
	// 2021-01-01 is a Friday; ISO week 53 of 2020.
	assert.Equal(t, 53, ISOWeek(date(2021, time.January, 1)))
	// 2021-01-04 is the Monday of ISO week 1.
	assert.Equal(t, 1, ISOWeek(date(2021, time.January, 4)))
	// Mid-year sanity check.
	assert.Equal(t, 26, ISOWeek(date(2024, time.June, 26)))
}

func TestMonthWeek_FirstDayIsAlwaysWeekOne(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		assert.Equal(t, 1, MonthWeek(date(2024, m, 1)), "month %s", m)
	}
}

func TestMonthWeek(t *testing.T) {
	// June 2025 starts on a Sunday: offset 0, weeks align to the 1st.
	assert.Equal(t, 1, MonthWeek(date(2025, time.June, 7)))
	assert.Equal(t, 2, MonthWeek(date(2025, time.June, 8)))
	assert.Equal(t, 5, MonthWeek(date(2025, time.June, 30)))

	// May 2025 starts on a Thursday: offset 4.
	assert.Equal(t, 1, MonthWeek(date(2025, time.May, 3)))
	assert.Equal(t, 2, MonthWeek(date(2025, time.May, 4)))
	assert.Equal(t, 5, MonthWeek(date(2025, time.May, 31)))
}

func TestMonthWeek_Deterministic(t *testing.T) {
	d := date(2025, time.March, 15)
	assert.Equal(t, MonthWeek(d), MonthWeek(d))
}

func TestDayKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:00 local on the 2nd is 21:00 UTC on the 1st.
	local := time.Date(2025, time.June, 2, 2, 0, 0, 0, loc)
	assert.Equal(t, "2025-06-01", DayKey(local))
}

func TestWeekKeyRoundTrip(t *testing.T) {
	key := WeekKey(2025, time.June, 2)
	assert.Equal(t, "2025-06-Week2", key)

	year, month, week, err := ParseWeekKey(key)
	assert.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.June, month)
	assert.Equal(t, 2, week)
}

func TestParseWeekKeyMalformed(t *testing.T) {
	for _, key := range []string{"garbage", "", "2025-13-Week1", "2025-06-Week0"} {
		_, _, _, err := ParseWeekKey(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestParseMonthKey(t *testing.T) {
	year, month, err := ParseMonthKey("2025-06")
	assert.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.June, month)

	_, _, err = ParseMonthKey("junk")
	assert.Error(t, err)
}
