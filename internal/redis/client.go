package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis carries only the short-lived mentor booking locks, so the pool
// stays small and the timeouts tight: a lock round-trip that cannot finish
// in 2 seconds is already useless against a 5-second lock TTL.
const (
	opTimeout    = 2 * time.Second
	poolSize     = 10
	minIdleConns = 1
)

// NewRedisClient connects and pings before returning; the booking path
// must not start serving with a dead lock backend.
func NewRedisClient(addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           0,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
