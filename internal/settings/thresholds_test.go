package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 20.0, cfg.Sensor1.Irrigation)
	assert.Equal(t, 30.0, cfg.Sensor1.Alert)
	assert.Equal(t, 20.0, cfg.Sensor2.OptimalMin)
	assert.Equal(t, 80.0, cfg.Sensor2.OptimalMax)
	assert.Equal(t, PrioritySensor1, cfg.SensorPriority)
	assert.Equal(t, 15, cfg.DurationMinutes)
	assert.Equal(t, 120, cfg.ReIrrigationDelay)
	assert.True(t, cfg.WeatherIntegration)

	assert.NoError(t, Validate(cfg))
}

func TestValidate_IrrigationMustBeBelowAlert(t *testing.T) {
	cfg := Default()
	cfg.Sensor1.Irrigation = 30
	cfg.Sensor1.Alert = 30
	assert.Error(t, Validate(cfg))

	cfg.Sensor1.Irrigation = 35
	assert.Error(t, Validate(cfg))
}

func TestValidate_IrrigationNotBelowOptimalMin(t *testing.T) {
	cfg := Default()
	cfg.Sensor2.Irrigation = 15
	cfg.Sensor2.OptimalMin = 18
	assert.Error(t, Validate(cfg))
}

func TestValidate_DelayFloor(t *testing.T) {
	cfg := Default()
	cfg.ReIrrigationDelay = 29
	assert.Error(t, Validate(cfg))

	cfg.ReIrrigationDelay = 30
	assert.NoError(t, Validate(cfg))
}

func TestValidate_Priority(t *testing.T) {
	cfg := Default()
	cfg.SensorPriority = "neither"
	assert.Error(t, Validate(cfg))
}

func TestAbsentFieldsFallBackToDefaults(t *testing.T) {
	// A partial document written by an older dashboard version: only
	// sensor1 is present. Unmarshalling over Default() must keep the
	// documented defaults for everything absent.
	cfg := Default()
	partial := []byte(`{"sensor1":{"irrigationThreshold":25,"alertThreshold":35,"optimalMin":25,"optimalMax":90}}`)
	require.NoError(t, json.Unmarshal(partial, &cfg))

	assert.Equal(t, 25.0, cfg.Sensor1.Irrigation)
	assert.Equal(t, 20.0, cfg.Sensor2.Irrigation)
	assert.Equal(t, PrioritySensor1, cfg.SensorPriority)
	assert.Equal(t, 120, cfg.ReIrrigationDelay)
	assert.True(t, cfg.WeatherIntegration)
}
