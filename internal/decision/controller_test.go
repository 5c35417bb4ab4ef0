package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/irrigation-server/internal/protocol"
	"github.com/agrosense/irrigation-server/internal/settings"
)

func activeDecision() Decision   { return Decision{Active: true} }
func inactiveDecision() Decision { return Decision{Active: false} }

func TestAdvance_IdleToActive(t *testing.T) {
	cfg := settings.Default()
	now := time.Now().UTC()
	state := &FieldState{Phase: PhaseIdle}

	events := advance(state, activeDecision(), cfg, now)

	assert.Equal(t, PhaseActive, state.Phase)
	assert.Equal(t, now, state.StartedAt)
	assert.Equal(t, []string{protocol.EventIrrigationStarted}, events)
}

func TestAdvance_IdleStaysIdleWithoutDemand(t *testing.T) {
	state := &FieldState{Phase: PhaseIdle}

	events := advance(state, inactiveDecision(), settings.Default(), time.Now().UTC())

	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Empty(t, events)
}

func TestAdvance_MinimumRunDuration(t *testing.T) {
	cfg := settings.Default() // 15 minute run
	started := time.Now().UTC()
	state := &FieldState{Phase: PhaseActive, StartedAt: started}

	// Moisture recovered after 5 minutes: still within the minimum run.
	events := advance(state, inactiveDecision(), cfg, started.Add(5*time.Minute))
	assert.Equal(t, PhaseActive, state.Phase)
	assert.Empty(t, events)

	// After the full duration, no demand stops the run.
	events = advance(state, inactiveDecision(), cfg, started.Add(16*time.Minute))
	assert.Equal(t, PhaseCooldown, state.Phase)
	assert.Equal(t, []string{protocol.EventIrrigationStopped}, events)
}

func TestAdvance_ActiveContinuesWhileDemandPersists(t *testing.T) {
	cfg := settings.Default()
	started := time.Now().UTC()
	state := &FieldState{Phase: PhaseActive, StartedAt: started}

	events := advance(state, activeDecision(), cfg, started.Add(time.Hour))

	assert.Equal(t, PhaseActive, state.Phase)
	assert.Empty(t, events)
}

func TestAdvance_CooldownBlocksReactivation(t *testing.T) {
	cfg := settings.Default() // 120 minute delay
	stopped := time.Now().UTC()
	state := &FieldState{Phase: PhaseCooldown, StoppedAt: stopped}

	// Demand during cooldown is ignored.
	events := advance(state, activeDecision(), cfg, stopped.Add(30*time.Minute))
	assert.Equal(t, PhaseCooldown, state.Phase)
	assert.Empty(t, events)

	// Once the delay passes, demand re-activates immediately.
	now := stopped.Add(121 * time.Minute)
	events = advance(state, activeDecision(), cfg, now)
	assert.Equal(t, PhaseActive, state.Phase)
	assert.Equal(t, now, state.StartedAt)
	assert.Equal(t, []string{protocol.EventIrrigationStarted}, events)
}

func TestAdvance_CooldownExpiresToIdle(t *testing.T) {
	cfg := settings.Default()
	stopped := time.Now().UTC()
	state := &FieldState{Phase: PhaseCooldown, StoppedAt: stopped}

	events := advance(state, inactiveDecision(), cfg, stopped.Add(3*time.Hour))

	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Empty(t, events)
}

func TestAdvance_AlertEdges(t *testing.T) {
	cfg := settings.Default()
	now := time.Now().UTC()
	state := &FieldState{Phase: PhaseIdle}

	// Rising edge on sensor2 only.
	events := advance(state, Decision{Sensor2Alert: true}, cfg, now)
	require.Equal(t, []string{protocol.EventLowMoistureAlert}, events)
	assert.True(t, state.Sensor2Alert)

	// No edge: no repeat alert.
	events = advance(state, Decision{Sensor2Alert: true}, cfg, now)
	assert.Empty(t, events)

	// Falling edge clears.
	events = advance(state, Decision{}, cfg, now)
	assert.Equal(t, []string{protocol.EventAlertCleared}, events)
	assert.False(t, state.Sensor2Alert)
}
