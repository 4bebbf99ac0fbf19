package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// EventDedupStore implements ports.EventDedupStore using Redis SET NX.
type EventDedupStore struct {
	client *goredis.Client
	prefix string
}

// NewEventDedupStore creates a new Redis-backed event dedup store.
func NewEventDedupStore(client *goredis.Client) *EventDedupStore {
	return &EventDedupStore{
		client: client,
		prefix: "webhook_event:",
	}
}

// CheckAndSet atomically records an event key, returning true when the
// event has not been seen within the TTL window.
func (s *EventDedupStore) CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetArgs(ctx, s.prefix+key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists, the event was already delivered
			return false, nil
		}
		return false, fmt.Errorf("redis event dedup check: %w", err)
	}
	return result == "OK", nil
}

// Clear removes an event key so the next delivery is treated as fresh.
func (s *EventDedupStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis event dedup clear: %w", err)
	}
	return nil
}
