// Package cache connects to the Dragonfly/Redis instance shared by the
// quota counters and the generation response cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second

	// keyPrefix namespaces cache entries written through Get and Set.
	keyPrefix = "courseforge:cache:"
)

// Cache holds the shared client. Client is exported for components that
// need raw commands, such as ai.RedisQuota.
type Cache struct {
	Client *redis.Client
}

// Options parses url and applies connection timeouts.
func Options(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout
	return opts, nil
}

// New connects and pings once.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := Options(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}
	return &Cache{Client: client}, nil
}

func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck is registered as the "cache" readiness check.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Get returns the value stored at key. The boolean is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.Client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return v, true, nil
}

// Set stores value at key for ttl. A zero ttl keeps the key forever.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.Client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
