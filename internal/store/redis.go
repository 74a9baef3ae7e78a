package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verte-zerg/hifz/internal/calendar"
)

const (
	redisKeyPrefix = "hifz:review:"
	// Flags outlive their day by a margin so late-night checks across time
	// zones still see them.
	redisFlagTTL = 48 * time.Hour
)

// RedisFlags keeps review flags in Redis so several devices share them.
type RedisFlags struct {
	client *redis.Client
	ttl    time.Duration
}

// OpenRedisFlags connects to the Redis server at url, e.g.
// redis://localhost:6379/0.
func OpenRedisFlags(ctx context.Context, url string) (*RedisFlags, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			// Best-effort close on connection failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisFlags(client), nil
}

// NewRedisFlags wraps an existing client.
func NewRedisFlags(client *redis.Client) *RedisFlags {
	return &RedisFlags{client: client, ttl: redisFlagTTL}
}

// ReviewDone reports whether the review of a plan was marked done on date.
func (f *RedisFlags) ReviewDone(ctx context.Context, planID string, date time.Time) (bool, error) {
	n, err := f.client.Exists(ctx, redisKey(planID, date)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read review flag: %w", err)
	}
	return n > 0, nil
}

// SetReviewDone marks the review of a plan done on date.
func (f *RedisFlags) SetReviewDone(ctx context.Context, planID string, date time.Time) error {
	if err := f.client.Set(ctx, redisKey(planID, date), "1", f.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set review flag: %w", err)
	}
	return nil
}

// ClearReviewFlags drops every review flag of a plan.
func (f *RedisFlags) ClearReviewFlags(ctx context.Context, planID string) error {
	var keys []string
	iter := f.client.Scan(ctx, 0, redisKeyPrefix+planID+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan review flags: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := f.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear review flags: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (f *RedisFlags) Close() error {
	return f.client.Close()
}

func redisKey(planID string, date time.Time) string {
	return redisKeyPrefix + planID + ":" + calendar.Format(date)
}
