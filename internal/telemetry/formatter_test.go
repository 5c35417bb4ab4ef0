package telemetry

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func newTestFormatter() *Formatter {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewFormatter(log)
}

func TestFormat_SortsAscending(t *testing.T) {
	raw := []RawReading{
		{Timestamp: "2025-06-02T09:00:00Z", Moisture1: f64(10), Moisture2: f64(35)},
		{Timestamp: "2025-06-01T09:00:00Z", Moisture1: f64(15), Moisture2: f64(40)},
		{Timestamp: "2025-06-01T15:00:00Z", Moisture1: f64(25), Moisture2: f64(45)},
	}

	got := newTestFormatter().Format(raw)
	require.Len(t, got, 3)

	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Date.Before(got[i].Date), "not sorted at %d", i)
	}
	assert.Equal(t, 15.0, got[0].Moisture1)
}

func TestFormat_SkipsBadTimestamps(t *testing.T) {
	raw := []RawReading{
		{Timestamp: "not-a-date", Moisture1: f64(10)},
		{Timestamp: "2025-06-01 09:30:00", Moisture1: f64(20), Moisture2: f64(30)},
	}

	got := newTestFormatter().Format(raw)
	require.Len(t, got, 1)
	assert.Equal(t, 20.0, got[0].Moisture1)
	assert.Equal(t, "09:30", got[0].Clock)
}

func TestFormat_MissingChannelsBecomeZero(t *testing.T) {
	raw := []RawReading{{Timestamp: "2025-06-01T09:00:00Z"}}

	got := newTestFormatter().Format(raw)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Moisture1)
	assert.Zero(t, got[0].Moisture2)
	assert.Nil(t, got[0].Temperature)
}

func TestFormat_CalendarKeys(t *testing.T) {
	raw := []RawReading{{Timestamp: "2025-06-08T14:45:00Z", Moisture1: f64(42)}}

	got := newTestFormatter().Format(raw)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, 2025, r.Year)
	assert.Equal(t, time.June, r.Month)
	assert.Equal(t, "June", r.MonthName)
	assert.Equal(t, 8, r.Day)
	assert.Equal(t, 2, r.MonthWeek) // June 2025 starts on a Sunday
	assert.Equal(t, "14:45", r.Clock)
	assert.Equal(t, "Jun 8, 2025", r.FormattedDate)
}

func TestFormat_Empty(t *testing.T) {
	assert.Empty(t, newTestFormatter().Format(nil))
}
