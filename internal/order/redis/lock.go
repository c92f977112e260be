package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds the per-order mutation locks. A lock only serializes the
// read-modify-write window; the storage layer's version check is the final
// guard, so an expired lock can never corrupt an order.
type Redis struct {
	Client  *redis.Client
	LockTTL time.Duration
}

func NewRedis(client *redis.Client, lockTTL time.Duration) *Redis {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &Redis{Client: client, LockTTL: lockTTL}
}

const lockPrefix = "order_lock:"

// LockOrder takes the mutation lock for one order. Returns false when another
// request currently holds it.
func (r *Redis) LockOrder(orderID string) (bool, error) {
	key := lockPrefix + orderID
	return r.Client.SetNX(context.Background(), key, "1", r.LockTTL).Result()
}

// UnlockOrder releases the mutation lock. Releasing an already-expired lock
// is not an error.
func (r *Redis) UnlockOrder(orderID string) error {
	key := lockPrefix + orderID
	_, err := r.Client.Del(context.Background(), key).Result()
	if err == redis.Nil {
		return nil
	}
	return err
}
