// Package refresh runs the dashboard's live cycle: on a fixed interval
// it pulls the latest reading and weather, reruns the irrigation
// decision, and publishes the result to the current-value view.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/dashboard"
	"github.com/agrosense/irrigation-server/internal/decision"
	"github.com/agrosense/irrigation-server/internal/settings"
	"github.com/agrosense/irrigation-server/internal/store"
	"github.com/agrosense/irrigation-server/internal/telemetry"
	"github.com/agrosense/irrigation-server/internal/weather"
)

// LatestSource provides the most recent persisted reading. Satisfied by
// store.DB.
type LatestSource interface {
	GetLatestSoilReading(fieldID string) (*store.SoilReadingRow, error)
}

// WeatherSource provides current conditions. Satisfied by
// weather.Client; implementations never fail, they degrade to defaults.
type WeatherSource interface {
	Fetch(ctx context.Context) weather.Snapshot
}

// SettingsSource provides the field's threshold configuration.
// Satisfied by settings.Store.
type SettingsSource interface {
	Get(ctx context.Context, fieldID string) (settings.ThresholdConfig, error)
}

// Controller drives the live refresh loop for one field. Cycles run
// serialized on the ticker goroutine; a cycle that outlives its
// interval delays the next tick rather than overlapping it.
type Controller struct {
	fieldID  string
	interval time.Duration
	source   LatestSource
	weather  WeatherSource
	settings SettingsSource
	view     *dashboard.CurrentView
	log      *logrus.Entry

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewController creates a refresh controller. interval is typically the
// configured refresh interval, 30 seconds by default.
func NewController(fieldID string, interval time.Duration, source LatestSource, ws WeatherSource, ss SettingsSource, view *dashboard.CurrentView, log *logrus.Logger) *Controller {
	return &Controller{
		fieldID:  fieldID,
		interval: interval,
		source:   source,
		weather:  ws,
		settings: ss,
		view:     view,
		log:      log.WithFields(logrus.Fields{"component": "refresh", "field": fieldID}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Run executes an immediate first cycle, then cycles on the interval
// until the context is cancelled or Stop is called.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.doneCh)

	c.log.WithField("interval", c.interval).Info("Refresh loop started")
	c.Tick(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Refresh loop stopped")
			return
		case <-c.stopCh:
			c.log.Info("Refresh loop stopped")
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Stop ends the loop and waits for the in-flight cycle to finish.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	<-c.doneCh
}

// Tick runs one refresh cycle. A failed cycle logs a warning and leaves
// the view on its previous state; the next tick tries again.
func (c *Controller) Tick(ctx context.Context) {
	seq := c.view.NextSeq()

	row, err := c.source.GetLatestSoilReading(c.fieldID)
	if err != nil {
		c.log.WithError(err).Warn("Refresh cycle failed, keeping previous state")
		return
	}
	if row == nil {
		c.log.Debug("No readings yet, skipping cycle")
		return
	}

	cfg, err := c.settings.Get(ctx, c.fieldID)
	if err != nil {
		c.log.WithError(err).Warn("Refresh cycle failed to load thresholds, keeping previous state")
		return
	}

	current := telemetry.CurrentMoisture{
		Moisture1: row.Moisture1,
		Moisture2: row.Moisture2,
		At:        row.Timestamp,
	}

	snap := weather.DefaultSnapshot("")
	if cfg.WeatherIntegration {
		snap = c.weather.Fetch(ctx)
	}

	state := dashboard.LiveState{
		Moisture:  current,
		Weather:   snap,
		Decision:  decision.Decide(current, cfg),
		UpdatedAt: time.Now(),
	}

	if !c.view.Apply(seq, state) {
		c.log.WithField("seq", seq).Debug("Discarded stale refresh result")
		return
	}

	c.log.WithFields(logrus.Fields{
		"seq":        seq,
		"moisture1":  current.Moisture1,
		"moisture2":  current.Moisture2,
		"irrigation": state.Decision.Active,
	}).Debug("Refresh cycle applied")
}
