package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/irrigation-server/internal/decision"
	"github.com/agrosense/irrigation-server/internal/store"
	"github.com/agrosense/irrigation-server/internal/telemetry"
)

type stubSource struct {
	rows []*store.SoilReadingRow
	err  error
}

func (s *stubSource) GetSoilReadings(fieldID string) ([]*store.SoilReadingRow, error) {
	return s.rows, s.err
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestLoadDerivesBucketsAndSelection(t *testing.T) {
	now := time.Now().UTC()
	src := &stubSource{rows: []*store.SoilReadingRow{
		{FieldID: "field-1", Timestamp: now.Add(-time.Hour), Moisture1: 30, Moisture2: 40},
		{FieldID: "field-1", Timestamp: now, Moisture1: 50, Moisture2: 60},
	}}

	svc := NewService(src, testLogger())
	snap, err := svc.Load("field-1")
	require.NoError(t, err)

	assert.Len(t, snap.Formatted, 2)
	require.Len(t, snap.Days, 1)
	assert.Equal(t, 40.0, snap.Days[0].Moisture1)
	assert.Len(t, snap.Weeks, 1)

	// the default selection lands on the month containing now
	assert.Equal(t, now.Format("2006-01"), snap.Selection.MonthKey)
	assert.Equal(t, "current", snap.Selection.DayKey)
}

func TestLoadFetchFailureIsRetryable(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	svc := NewService(src, testLogger())

	_, err := svc.Load("field-1")
	require.Error(t, err)

	// retry is just another Load; once the source recovers it succeeds
	src.err = nil
	snap, err := svc.Load("field-1")
	require.NoError(t, err)
	assert.Empty(t, snap.Formatted)
}

func TestViewAppliesSelection(t *testing.T) {
	src := &stubSource{rows: []*store.SoilReadingRow{
		{FieldID: "f", Timestamp: time.Date(2025, 6, 8, 9, 0, 0, 0, time.UTC), Moisture1: 30, Moisture2: 40},
		{FieldID: "f", Timestamp: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC), Moisture1: 50, Moisture2: 60},
	}}

	svc := NewService(src, testLogger())
	snap, err := svc.Load("f")
	require.NoError(t, err)

	snap.Selection.MonthKey = "2025-06"
	view := svc.View(snap)
	require.Len(t, view.Daily, 1)
	assert.Equal(t, time.June, view.Daily[0].Month)
	assert.Equal(t, 8, view.Daily[0].Day)
}

func TestCurrentViewDiscardsStaleResults(t *testing.T) {
	view := NewCurrentView()

	seq1 := view.NextSeq()
	seq2 := view.NextSeq()

	// the newer cycle finishes first
	accepted := view.Apply(seq2, LiveState{
		Moisture: telemetry.CurrentMoisture{Moisture1: 50},
		Decision: decision.Decision{Active: false},
	})
	assert.True(t, accepted)

	// the older cycle's result arrives late and must be dropped
	accepted = view.Apply(seq1, LiveState{
		Moisture: telemetry.CurrentMoisture{Moisture1: 10},
		Decision: decision.Decision{Active: true},
	})
	assert.False(t, accepted)

	state, ok := view.Get()
	require.True(t, ok)
	assert.Equal(t, 50.0, state.Moisture.Moisture1)
	assert.False(t, state.Decision.Active)
}

func TestCurrentViewEmptyUntilFirstApply(t *testing.T) {
	view := NewCurrentView()
	_, ok := view.Get()
	assert.False(t, ok)

	view.Apply(view.NextSeq(), LiveState{UpdatedAt: time.Now()})
	_, ok = view.Get()
	assert.True(t, ok)
}
