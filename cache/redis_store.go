package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists cache entries in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return &entry, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, entry *Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// Sweep implements Store by scanning all cache keys and deleting entries
// older than the cutoff.
func (s *RedisStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	var removed int
	iter := s.client.Scan(ctx, 0, "cache:*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		entry, err := s.Get(ctx, key)
		if err != nil || entry == nil {
			continue
		}
		if entry.Updated.Before(cutoff) {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return removed, fmt.Errorf("failed to delete cache entry %s: %w", key, err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("cache sweep scan failed: %w", err)
	}
	return removed, nil
}
