// Package decision computes the irrigation on/off state from the
// latest soil reading and a threshold profile.
//
// Decide is pure and memoryless: it is recomputed on every reading and
// carries no hysteresis. The Controller in this package wraps it with
// the IDLE/ACTIVE/COOLDOWN state machine that enforces the configured
// run duration and re-irrigation delay.
package decision

import (
	"fmt"

	"github.com/agrosense/irrigation-server/internal/settings"
	"github.com/agrosense/irrigation-server/internal/telemetry"
)

// Decision is the outcome of evaluating one reading against a profile.
// Alert flags are informational and independent of Active: both sensors
// are checked against their alert thresholds regardless of which sensor
// owns irrigation control.
type Decision struct {
	Active bool
	Reason string

	Sensor1Alert bool
	Sensor2Alert bool
}

// Decide evaluates the current moisture against the profile.
//
// Priority "sensor1"/"sensor2" gates activation on that sensor alone.
// Priority "both" is historically named but means EITHER: activation
// when any sensor is below its own irrigation threshold. Irrigating
// when any sensor demands it is the conservative reading.
//
// The function tolerates any profile values; validation happens at the
// settings boundary, not here. An unrecognized priority falls back to
// sensor1.
func Decide(current telemetry.CurrentMoisture, cfg settings.ThresholdConfig) Decision {
	d := Decision{
		Sensor1Alert: current.Moisture1 < cfg.Sensor1.Alert,
		Sensor2Alert: current.Moisture2 < cfg.Sensor2.Alert,
	}

	below1 := current.Moisture1 < cfg.Sensor1.Irrigation
	below2 := current.Moisture2 < cfg.Sensor2.Irrigation

	switch cfg.SensorPriority {
	case settings.PrioritySensor2:
		d.Active = below2
		if below2 {
			d.Reason = reasonBelow("sensor2", current.Moisture2, cfg.Sensor2.Irrigation)
		} else {
			d.Reason = reasonAbove("sensor2", current.Moisture2, cfg.Sensor2.Irrigation)
		}

	case settings.PriorityBoth:
		d.Active = below1 || below2
		switch {
		case below1:
			d.Reason = reasonBelow("sensor1", current.Moisture1, cfg.Sensor1.Irrigation)
		case below2:
			d.Reason = reasonBelow("sensor2", current.Moisture2, cfg.Sensor2.Irrigation)
		default:
			d.Reason = "both sensors at or above their irrigation thresholds"
		}

	default: // PrioritySensor1 and anything unrecognized
		d.Active = below1
		if below1 {
			d.Reason = reasonBelow("sensor1", current.Moisture1, cfg.Sensor1.Irrigation)
		} else {
			d.Reason = reasonAbove("sensor1", current.Moisture1, cfg.Sensor1.Irrigation)
		}
	}

	return d
}

func reasonBelow(sensor string, value, threshold float64) string {
	return fmt.Sprintf("%s moisture %.1f below irrigation threshold %.1f", sensor, value, threshold)
}

func reasonAbove(sensor string, value, threshold float64) string {
	return fmt.Sprintf("%s moisture %.1f at or above irrigation threshold %.1f", sensor, value, threshold)
}
