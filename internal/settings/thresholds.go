// Package settings holds the per-field crop-profile configuration:
// moisture thresholds, sensor priority, and irrigation timing. The
// validation boundary lives here; the decision engine deliberately
// accepts any values and degrades gracefully.
package settings

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Sensor priority policies. PriorityBoth is historically named "both"
// but means EITHER: irrigation activates when any configured sensor is
// below its own threshold. OR is the safe choice for irrigation (act
// if any sensor demands water), so the semantic is intentional.
const (
	PrioritySensor1 = "sensor1"
	PrioritySensor2 = "sensor2"
	PriorityBoth    = "both"
)

// SensorThresholds configures one moisture channel. Irrigation must sit
// strictly below Alert and not below OptimalMin.
type SensorThresholds struct {
	Irrigation float64 `json:"irrigationThreshold" validate:"gte=0,lte=100"`
	Alert      float64 `json:"alertThreshold" validate:"gte=0,lte=100"`
	OptimalMin float64 `json:"optimalMin" validate:"gte=0,lte=100"`
	OptimalMax float64 `json:"optimalMax" validate:"gte=0,lte=100,gtfield=OptimalMin"`
}

// ThresholdConfig is the full crop profile for one field.
type ThresholdConfig struct {
	Sensor1 SensorThresholds `json:"sensor1"`
	Sensor2 SensorThresholds `json:"sensor2"`

	SensorPriority     string `json:"sensorPriority" validate:"oneof=sensor1 sensor2 both"`
	DurationMinutes    int    `json:"duration" validate:"gt=0"`
	ReIrrigationDelay  int    `json:"reIrrigationDelay" validate:"gte=30"`
	WeatherIntegration bool   `json:"weatherIntegration"`
}

// Default returns the documented fallback profile.
func Default() ThresholdConfig {
	sensor := SensorThresholds{
		Irrigation: 20,
		Alert:      30,
		OptimalMin: 20,
		OptimalMax: 80,
	}
	return ThresholdConfig{
		Sensor1:            sensor,
		Sensor2:            sensor,
		SensorPriority:     PrioritySensor1,
		DurationMinutes:    15,
		ReIrrigationDelay:  120,
		WeatherIntegration: true,
	}
}

var validate = validator.New()

// Validate checks a profile before it is persisted. Cross-field rules
// the struct tags cannot express: irrigation strictly below alert, and
// irrigation not below the optimal band floor.
func Validate(cfg ThresholdConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid threshold config: %w", err)
	}

	for name, s := range map[string]SensorThresholds{"sensor1": cfg.Sensor1, "sensor2": cfg.Sensor2} {
		if s.Irrigation >= s.Alert {
			return fmt.Errorf("%s: irrigation threshold %.1f must be below alert threshold %.1f",
				name, s.Irrigation, s.Alert)
		}
		if s.Irrigation < s.OptimalMin {
			return fmt.Errorf("%s: irrigation threshold %.1f must not be below optimal minimum %.1f",
				name, s.Irrigation, s.OptimalMin)
		}
	}

	return nil
}
