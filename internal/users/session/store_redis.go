// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// # Attempt Limiter

// RedisAttemptLimiter implements AttemptLimiter using Redis INCR+EXPIRE.
type RedisAttemptLimiter struct {
	client *redis.Client
}

// NewAttemptLimiter creates a new Redis-backed AttemptLimiter.
func NewAttemptLimiter(client *redis.Client) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{client: client}
}

/*
Hit increments the counter for the key and returns the new count.

Description: The TTL is set only when the increment creates the key, so the
window is anchored to the first failed attempt rather than sliding on every
hit.

Parameters:
  - context: context.Context
  - key: string
  - window: time.Duration

Returns:
  - int64: Count after increment
  - error: Execution errors
*/
func (limiter *RedisAttemptLimiter) Hit(context context.Context, key string, window time.Duration) (int64, error) {

	// Increment the counter
	count, err := limiter.client.Incr(context, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_attempt_limiter_incr_failed: %w", err)
	}

	// First hit opens the window
	if count == 1 {
		if err := limiter.client.Expire(context, key, window).Err(); err != nil {
			return count, fmt.Errorf("redis_attempt_limiter_expire_failed: %w", err)
		}
	}

	return count, nil
}

/*
Count returns the current counter value without incrementing.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - int64: Current count, 0 when the key is absent or expired
  - error: Execution errors
*/
func (limiter *RedisAttemptLimiter) Count(context context.Context, key string) (int64, error) {

	// Read the counter
	count, err := limiter.client.Get(context, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis_attempt_limiter_get_failed: %w", err)
	}

	return count, nil
}

/*
Reset clears the counter for the key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - error: Execution errors
*/
func (limiter *RedisAttemptLimiter) Reset(context context.Context, key string) error {

	// Delete the counter
	if err := limiter.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_attempt_limiter_del_failed: %w", err)
	}

	return nil
}
