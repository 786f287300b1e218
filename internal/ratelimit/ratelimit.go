// Package ratelimit provides Redis-based rate limiting for chat posts.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned when a rate limit is exceeded.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter counts requests per key in fixed windows. A nil Limiter, or one
// without a Redis client, allows everything.
type Limiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

// NewLimiter creates a limiter allowing limit requests per window.
func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{redis: client, limit: limit, window: window}
}

// Dial connects to Redis from a redis:// URL.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Println("[RateLimit] Redis connection established")
	return client, nil
}

// AllowChat checks the per-user chat limit for one song.
func (l *Limiter) AllowChat(ctx context.Context, songID, userID string) error {
	if l == nil || l.redis == nil || l.limit <= 0 {
		return nil
	}
	key := fmt.Sprintf("ratelimit:chat:%s:%s", songID, userID)
	if err := l.checkLimit(ctx, key); err != nil {
		log.Printf("[RateLimit] User %s exceeded chat limit on song %s", userID, songID)
		return err
	}
	return nil
}

// checkLimit uses INCR with an expiry set on the first hit of a window.
func (l *Limiter) checkLimit(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		// Fail open.
		log.Printf("[RateLimit] Redis error, allowing request: %v", err)
		return nil
	}
	if count == 1 {
		l.redis.Expire(ctx, key, l.window)
	}
	if int(count) > l.limit {
		return ErrRateLimited
	}
	return nil
}
