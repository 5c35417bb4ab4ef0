package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FieldState is the persisted hysteresis state for one field.
type FieldState struct {
	Phase     string    `json:"phase"` // IDLE, ACTIVE, COOLDOWN
	StartedAt time.Time `json:"started_at,omitempty"`
	StoppedAt time.Time `json:"stopped_at,omitempty"`
	EventID   int64     `json:"event_id,omitempty"`

	Sensor1Alert bool `json:"sensor1_alert"`
	Sensor2Alert bool `json:"sensor2_alert"`
}

const (
	PhaseIdle     = "IDLE"
	PhaseActive   = "ACTIVE"
	PhaseCooldown = "COOLDOWN"
)

// StateStore manages field irrigation states in Redis
type StateStore struct {
	redis *redis.Client
}

// NewStateStore creates a new state store
func NewStateStore(redisClient *redis.Client) *StateStore {
	return &StateStore{redis: redisClient}
}

func stateKey(fieldID string) string {
	return fmt.Sprintf("irrigation_state:%s", fieldID)
}

// Get retrieves the irrigation state for a field. A missing key means
// the field is idle.
func (s *StateStore) Get(ctx context.Context, fieldID string) (*FieldState, error) {
	data, err := s.redis.Get(ctx, stateKey(fieldID)).Result()
	if err == redis.Nil {
		return &FieldState{Phase: PhaseIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state from Redis: %w", err)
	}

	var state FieldState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &state, nil
}

// Set saves the irrigation state for a field.
func (s *StateStore) Set(ctx context.Context, fieldID string, state *FieldState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Expire stale states after 7 days of silence
	if err := s.redis.Set(ctx, stateKey(fieldID), data, 7*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set state in Redis: %w", err)
	}

	return nil
}

// Delete removes the irrigation state (returns the field to IDLE).
func (s *StateStore) Delete(ctx context.Context, fieldID string) error {
	return s.redis.Del(ctx, stateKey(fieldID)).Err()
}
