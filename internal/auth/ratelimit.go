package auth

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// LoginLimiter bounds login attempts per client within a fixed window to
// blunt credential brute force. Counters live in Redis so every instance of
// the service shares the same budget.
type LoginLimiter struct {
	Client      *redis.Client
	MaxAttempts int
	Window      time.Duration
}

func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{Client: client, MaxAttempts: maxAttempts, Window: window}
}

const attemptPrefix = "login_attempts:"

// Allow records one attempt for the client and reports whether it is still
// within budget. The window starts at the first attempt and is not sliding.
func (l *LoginLimiter) Allow(clientID string) (bool, error) {
	ctx := context.Background()
	key := attemptPrefix + clientID

	count, err := l.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.Client.Expire(ctx, key, l.Window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.MaxAttempts), nil
}

// Reset clears the attempt counter after a successful login.
func (l *LoginLimiter) Reset(clientID string) error {
	err := l.Client.Del(context.Background(), attemptPrefix+clientID).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}
