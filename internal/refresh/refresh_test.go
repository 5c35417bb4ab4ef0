package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/irrigation-server/internal/dashboard"
	"github.com/agrosense/irrigation-server/internal/settings"
	"github.com/agrosense/irrigation-server/internal/store"
	"github.com/agrosense/irrigation-server/internal/weather"
)

type stubLatest struct {
	row *store.SoilReadingRow
	err error
}

func (s *stubLatest) GetLatestSoilReading(fieldID string) (*store.SoilReadingRow, error) {
	return s.row, s.err
}

type stubWeather struct {
	snap   weather.Snapshot
	called int
}

func (s *stubWeather) Fetch(ctx context.Context) weather.Snapshot {
	s.called++
	return s.snap
}

type stubSettings struct {
	cfg settings.ThresholdConfig
	err error
}

func (s *stubSettings) Get(ctx context.Context, fieldID string) (settings.ThresholdConfig, error) {
	return s.cfg, s.err
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestController(latest *stubLatest, ws *stubWeather, ss *stubSettings) (*Controller, *dashboard.CurrentView) {
	view := dashboard.NewCurrentView()
	ctrl := NewController("field-1", time.Hour, latest, ws, ss, view, testLogger())
	return ctrl, view
}

func TestTickAppliesDecisionAndWeather(t *testing.T) {
	now := time.Now()
	latest := &stubLatest{row: &store.SoilReadingRow{
		FieldID: "field-1", Timestamp: now, Moisture1: 10, Moisture2: 55,
	}}
	ws := &stubWeather{snap: weather.Snapshot{Temperature: 31, Condition: "Sunny"}}
	ss := &stubSettings{cfg: settings.Default()}

	ctrl, view := newTestController(latest, ws, ss)
	ctrl.Tick(context.Background())

	state, ok := view.Get()
	require.True(t, ok)
	assert.True(t, state.Decision.Active, "moisture1 of 10 is below the default threshold")
	assert.Equal(t, 10.0, state.Moisture.Moisture1)
	assert.Equal(t, "Sunny", state.Weather.Condition)
	assert.Equal(t, 1, ws.called)
}

func TestTickSkipsWeatherWhenDisabled(t *testing.T) {
	latest := &stubLatest{row: &store.SoilReadingRow{Timestamp: time.Now(), Moisture1: 50, Moisture2: 50}}
	ws := &stubWeather{}
	cfg := settings.Default()
	cfg.WeatherIntegration = false
	ss := &stubSettings{cfg: cfg}

	ctrl, view := newTestController(latest, ws, ss)
	ctrl.Tick(context.Background())

	state, ok := view.Get()
	require.True(t, ok)
	assert.Equal(t, 0, ws.called)
	assert.Equal(t, "Unknown", state.Weather.Condition)
}

func TestFailedTickKeepsPreviousState(t *testing.T) {
	latest := &stubLatest{row: &store.SoilReadingRow{Timestamp: time.Now(), Moisture1: 42, Moisture2: 42}}
	ws := &stubWeather{}
	ss := &stubSettings{cfg: settings.Default()}

	ctrl, view := newTestController(latest, ws, ss)
	ctrl.Tick(context.Background())

	latest.err = errors.New("db down")
	ctrl.Tick(context.Background())

	state, ok := view.Get()
	require.True(t, ok)
	assert.Equal(t, 42.0, state.Moisture.Moisture1, "failed cycle must not clear the view")
}

func TestTickWithNoReadingsLeavesViewEmpty(t *testing.T) {
	ctrl, view := newTestController(&stubLatest{}, &stubWeather{}, &stubSettings{cfg: settings.Default()})
	ctrl.Tick(context.Background())

	_, ok := view.Get()
	assert.False(t, ok)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	latest := &stubLatest{row: &store.SoilReadingRow{Timestamp: time.Now(), Moisture1: 50, Moisture2: 50}}
	ctrl, view := newTestController(latest, &stubWeather{}, &stubSettings{cfg: settings.Default()})

	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Run(ctx)

	require.Eventually(t, func() bool {
		_, ok := view.Get()
		return ok
	}, time.Second, 10*time.Millisecond, "first cycle runs immediately")

	cancel()
	select {
	case <-ctrl.doneCh:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after context cancel")
	}
}

func TestStopWaitsForLoop(t *testing.T) {
	latest := &stubLatest{row: &store.SoilReadingRow{Timestamp: time.Now(), Moisture1: 50, Moisture2: 50}}
	ctrl, _ := newTestController(latest, &stubWeather{}, &stubSettings{cfg: settings.Default()})

	go ctrl.Run(context.Background())
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		ctrl.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
