// Package cache holds the Redis connection and the item read model stored in it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ghuser/itemcatalog/pkg/config"
)

const connectTimeout = 2 * time.Second

// ErrDisabled is returned by NewRedisClient when no Redis URL is configured.
var ErrDisabled = errors.New("cache: redis disabled")

// RedisClient owns the Redis connection pool.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to cfg.RedisURL and pings it within 2 s. An empty
// URL yields ErrDisabled so callers can run without a cache.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*RedisClient, error) {
	if cfg.RedisURL == "" {
		return nil, ErrDisabled
	}
	opts, err := redisOptions(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	return &RedisClient{client: rdb}, nil
}

// redisOptions parses url and applies the pool sizing. Cache reads sit on the
// request path, so timeouts stay short; a slow Redis falls back to Postgres.
func redisOptions(url string) (*redis.Options, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis URL: %w", err)
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 2
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond
	opts.PoolTimeout = time.Second
	return opts, nil
}

// Ping checks the Redis connection for the health endpoint.
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: ping redis: %w", err)
	}
	return nil
}

// Close releases the pool. It is safe on a nil receiver.
func (r *RedisClient) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("cache: close redis: %w", err)
	}
	return nil
}

// Client returns the underlying go-redis client.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}
