package cache

import (
	"context"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on a Redis server for the API deployment,
// where several instances share one layout cache.
type RedisCache struct {
	client *backend.Client
}

// RedisOption configures a RedisCache.
type RedisOption func(*backend.Options)

// WithPassword sets the Redis AUTH password.
func WithPassword(password string) RedisOption {
	return func(o *backend.Options) { o.Password = password }
}

// WithDB selects the Redis logical database.
func WithDB(db int) RedisOption {
	return func(o *backend.Options) { o.DB = db }
}

// NewRedisCache connects to the Redis server at addr and verifies the
// connection with a ping.
func NewRedisCache(ctx context.Context, addr string, opts ...RedisOption) (*RedisCache, error) {
	options := &backend.Options{Addr: addr}
	for _, opt := range opts {
		opt(options)
	}
	client := backend.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *backend.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == backend.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in Redis. A non-positive ttl stores without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
