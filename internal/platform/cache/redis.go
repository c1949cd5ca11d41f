package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the shared Redis client used for sessions and the
// public response cache.
type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// Timeout bounds dialing, each read and write, and the startup ping.
	Timeout time.Duration
}

func (o Options) redisOptions() *redis.Options {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		PoolSize:     o.PoolSize,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
}

// New connects to Redis and fails fast when the server does not answer.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	ro := opts.redisOptions()
	client := redis.NewClient(ro)

	ctx, cancel := context.WithTimeout(ctx, ro.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}
