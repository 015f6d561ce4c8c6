// Package cache provides the Redis-backed leaderboard read model.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/paddockpicks/paddock/internal/config"
	"github.com/paddockpicks/paddock/internal/models"
)

const (
	keyPrefix = "paddock:leaderboard:"
	// indexKey tracks every cached page so Invalidate can drop them without SCAN.
	indexKey = keyPrefix + "keys"
)

// LeaderboardCache stores rendered leaderboard pages by limit.
type LeaderboardCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewClient opens a Redis client from configuration and pings it.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewLeaderboardCache creates a cache on top of an existing client.
func NewLeaderboardCache(client redis.UniversalClient, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func pageKey(limit int) string {
	return keyPrefix + "top:" + strconv.Itoa(limit)
}

// GetLeaderboard returns a cached page. The boolean is false on a miss.
func (c *LeaderboardCache) GetLeaderboard(ctx context.Context, limit int) ([]models.StandingEntry, bool, error) {
	raw, err := c.client.Get(ctx, pageKey(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}

	var entries []models.StandingEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode leaderboard cache: %w", err)
	}
	return entries, true, nil
}

// SetLeaderboard stores a page with the configured TTL.
func (c *LeaderboardCache) SetLeaderboard(ctx context.Context, limit int, entries []models.StandingEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard: %w", err)
	}

	key := pageKey(limit)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	pipe.SAdd(ctx, indexKey, key)
	if c.ttl > 0 {
		pipe.Expire(ctx, indexKey, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write leaderboard cache: %w", err)
	}
	return nil
}

// Invalidate drops every cached page.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list leaderboard cache keys: %w", err)
	}

	keys = append(keys, indexKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	return nil
}
