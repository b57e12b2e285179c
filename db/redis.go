package db

import (
	"context"
	"fmt"
	"time"

	"GuildFM/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis initializes the Redis connection backing the metadata cache
// tiers. The handle is passed explicitly to its consumers rather than held
// as package state, so it can be swapped with a defined lifecycle.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// CloseRedis closes a Redis client.
func CloseRedis(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
