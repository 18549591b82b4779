package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var _ Slot = (*Redis)(nil)

// DefaultRedisKey is the key holding the override set.
const DefaultRedisKey = "sowaudit:default_checks"

// Redis keeps the slot under a single Redis key with no expiry.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis creates a Redis-backed slot. An empty key selects DefaultRedisKey.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

// Read returns the stored bytes or ErrNotFound.
func (s *Redis) Read(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: redis get %s: %w", s.key, err)
	}
	return data, nil
}

// Write replaces the stored bytes.
func (s *Redis) Write(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("store: redis set %s: %w", s.key, err)
	}
	return nil
}

// Clear removes the key. Clearing an empty slot is not an error.
func (s *Redis) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("store: redis del %s: %w", s.key, err)
	}
	return nil
}
