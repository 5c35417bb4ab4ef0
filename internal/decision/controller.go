package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/internal/protocol"
	"github.com/agrosense/irrigation-server/internal/settings"
	"github.com/agrosense/irrigation-server/internal/store"
	"github.com/agrosense/irrigation-server/internal/telemetry"
)

// EventPublisher publishes irrigation events to the events topic.
// Satisfied by queue.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// EventLog persists irrigation run records. Satisfied by store.DB.
type EventLog interface {
	InsertIrrigationEvent(event *store.IrrigationEventRow) error
	CloseIrrigationEvent(eventID int64, endTime time.Time) error
}

// Controller wraps the pure Decide function with the hysteresis state
// machine IDLE -> ACTIVE -> COOLDOWN. A field stays ACTIVE for at least
// the configured run duration, and after stopping cannot re-activate
// until the re-irrigation delay has passed. This is what keeps the
// valve from flapping when moisture hovers around the threshold.
type Controller struct {
	states    *StateStore
	eventLog  EventLog
	publisher EventPublisher
	log       *logrus.Entry
}

// NewController creates an irrigation controller.
func NewController(states *StateStore, eventLog EventLog, publisher EventPublisher, log *logrus.Logger) *Controller {
	return &Controller{
		states:    states,
		eventLog:  eventLog,
		publisher: publisher,
		log:       log.WithField("component", "irrigation-controller"),
	}
}

// Evaluate runs one reading for one field through the state machine.
func (c *Controller) Evaluate(ctx context.Context, fieldID, farm string, current telemetry.CurrentMoisture, cfg settings.ThresholdConfig) error {
	state, err := c.states.Get(ctx, fieldID)
	if err != nil {
		return err
	}

	d := Decide(current, cfg)
	now := time.Now().UTC()

	events := advance(state, d, cfg, now)

	for _, evType := range events {
		if err := c.emit(ctx, evType, fieldID, farm, current, cfg, d, state, now); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"field": fieldID,
				"event": evType,
			}).Error("Failed to emit irrigation event")
		}
	}

	return c.states.Set(ctx, fieldID, state)
}

// advance applies one decision to the state machine in place and
// returns the event types to emit. Pure apart from the mutation of
// state, so transitions are testable without Redis or Kafka.
func advance(state *FieldState, d Decision, cfg settings.ThresholdConfig, now time.Time) []string {
	var events []string

	duration := time.Duration(cfg.DurationMinutes) * time.Minute
	delay := time.Duration(cfg.ReIrrigationDelay) * time.Minute

	switch state.Phase {
	case PhaseActive:
		// Enforce the minimum run duration, then keep running while
		// demand persists.
		if now.Sub(state.StartedAt) >= duration && !d.Active {
			state.Phase = PhaseCooldown
			state.StoppedAt = now
			events = append(events, protocol.EventIrrigationStopped)
		}

	case PhaseCooldown:
		if now.Sub(state.StoppedAt) >= delay {
			if d.Active {
				state.Phase = PhaseActive
				state.StartedAt = now
				events = append(events, protocol.EventIrrigationStarted)
			} else {
				state.Phase = PhaseIdle
			}
		}

	default: // PhaseIdle (and unknown phases from older versions)
		if d.Active {
			state.Phase = PhaseActive
			state.StartedAt = now
			events = append(events, protocol.EventIrrigationStarted)
		} else {
			state.Phase = PhaseIdle
		}
	}

	// Alert edges are independent of the irrigation phase.
	if d.Sensor1Alert != state.Sensor1Alert {
		state.Sensor1Alert = d.Sensor1Alert
		events = append(events, alertEvent(d.Sensor1Alert))
	}
	if d.Sensor2Alert != state.Sensor2Alert {
		state.Sensor2Alert = d.Sensor2Alert
		events = append(events, alertEvent(d.Sensor2Alert))
	}

	return events
}

func alertEvent(raised bool) string {
	if raised {
		return protocol.EventLowMoistureAlert
	}
	return protocol.EventAlertCleared
}

func (c *Controller) emit(ctx context.Context, evType, fieldID, farm string, current telemetry.CurrentMoisture, cfg settings.ThresholdConfig, d Decision, state *FieldState, now time.Time) error {
	event := &protocol.IrrigationEvent{
		Type:      evType,
		FieldID:   fieldID,
		Farm:      farm,
		Moisture1: current.Moisture1,
		Moisture2: current.Moisture2,
		Reason:    d.Reason,
		At:        now,
	}

	switch evType {
	case protocol.EventIrrigationStarted:
		cfgJSON, _ := json.Marshal(cfg)
		row := &store.IrrigationEventRow{
			FieldID:         fieldID,
			EventType:       evType,
			Moisture1:       current.Moisture1,
			Moisture2:       current.Moisture2,
			ThresholdConfig: string(cfgJSON),
			StartTime:       state.StartedAt,
			Status:          store.EventStatusActive,
		}
		if err := c.eventLog.InsertIrrigationEvent(row); err != nil {
			return fmt.Errorf("failed to insert irrigation event: %w", err)
		}
		state.EventID = row.EventID
		event.EventID = row.EventID

		c.log.WithFields(logrus.Fields{
			"field":     fieldID,
			"moisture1": current.Moisture1,
			"moisture2": current.Moisture2,
		}).Info("Irrigation started")

	case protocol.EventIrrigationStopped:
		if state.EventID > 0 {
			if err := c.eventLog.CloseIrrigationEvent(state.EventID, now); err != nil {
				return fmt.Errorf("failed to close irrigation event: %w", err)
			}
		}
		event.EventID = state.EventID
		state.EventID = 0

		c.log.WithField("field", fieldID).Info("Irrigation stopped, cooldown begins")
	}

	data, err := protocol.EncodeIrrigationEvent(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return c.publisher.Publish(ctx, fieldID, data)
}
