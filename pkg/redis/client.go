package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/signalengine/pkg/config"
)

// Client wraps go-redis. A disabled client is valid: the cache reports
// misses and the rate limiter allows every request.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// pingTimeout bounds the connectivity check in New
const pingTimeout = 3 * time.Second

// New connects to Redis when cfg.Enabled and verifies the connection.
// A disabled config returns a disabled client and no error.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return NewDisabled(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pingTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// NewDisabled returns a client that never touches Redis
func NewDisabled() *Client {
	return &Client{}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether commands reach Redis
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// Redis returns the underlying go-redis client, nil when disabled
func (c *Client) Redis() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}
