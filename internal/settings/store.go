package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store persists threshold profiles in Redis, one JSON document per
// field.
type Store struct {
	redis *redis.Client
}

// NewStore creates a settings store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func profileKey(fieldID string) string {
	return fmt.Sprintf("threshold_config:%s", fieldID)
}

// Get returns the profile for a field. A missing profile yields the
// defaults; a stored profile with absent fields keeps the defaults for
// those fields (the document is unmarshalled over Default()).
func (s *Store) Get(ctx context.Context, fieldID string) (ThresholdConfig, error) {
	cfg := Default()

	data, err := s.redis.Get(ctx, profileKey(fieldID)).Result()
	if err == redis.Nil {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to get threshold config from Redis: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return Default(), fmt.Errorf("failed to unmarshal threshold config: %w", err)
	}

	return cfg, nil
}

// Set validates and persists a profile.
func (s *Store) Set(ctx context.Context, fieldID string, cfg ThresholdConfig) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal threshold config: %w", err)
	}

	if err := s.redis.Set(ctx, profileKey(fieldID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set threshold config in Redis: %w", err)
	}

	return nil
}
