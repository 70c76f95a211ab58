package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Quota limits how many generations a client may request per window.
type Quota interface {
	// Take consumes one generation for key and reports whether it was within
	// the limit.
	Take(ctx context.Context, key string) (bool, error)
	// Refund returns one generation taken for key, for requests that failed
	// before producing anything.
	Refund(ctx context.Context, key string) error
}

// UnlimitedQuota allows everything.
type UnlimitedQuota struct{}

func (UnlimitedQuota) Take(context.Context, string) (bool, error) {
	return true, nil
}

func (UnlimitedQuota) Refund(context.Context, string) error {
	return nil
}

// InMemoryQuota is a fixed-window counter for single-instance deployments and
// tests.
type InMemoryQuota struct {
	limit   int
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	windows map[string]*quotaWindow
}

type quotaWindow struct {
	start time.Time
	count int
}

// NewInMemoryQuota allows limit generations per key per window. A limit of
// zero or less means unlimited.
func NewInMemoryQuota(limit int, window time.Duration) *InMemoryQuota {
	return &InMemoryQuota{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*quotaWindow),
	}
}

func (q *InMemoryQuota) Take(_ context.Context, key string) (bool, error) {
	if q.limit <= 0 {
		return true, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	w, ok := q.windows[key]
	if !ok || now.Sub(w.start) >= q.window {
		w = &quotaWindow{start: now}
		q.windows[key] = w
	}
	w.count++
	return w.count <= q.limit, nil
}

// Refund decrements key's count in its current window. It never goes below
// zero and does nothing once the window has rolled over.
func (q *InMemoryQuota) Refund(_ context.Context, key string) error {
	if q.limit <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	w, ok := q.windows[key]
	if ok && q.now().Sub(w.start) < q.window && w.count > 0 {
		w.count--
	}
	return nil
}

// Used returns the count in key's current window.
func (q *InMemoryQuota) Used(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	w, ok := q.windows[key]
	if !ok || q.now().Sub(w.start) >= q.window {
		return 0
	}
	return w.count
}

// RedisQuota is a fixed-window counter shared by every instance through
// Redis/Dragonfly.
type RedisQuota struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisQuota allows limit generations per key per window.
func NewRedisQuota(client *redis.Client, limit int, window time.Duration) *RedisQuota {
	return &RedisQuota{
		client: client,
		limit:  limit,
		window: window,
		prefix: "courseforge:quota:",
	}
}

func (q *RedisQuota) Take(ctx context.Context, key string) (bool, error) {
	if q.limit <= 0 {
		return true, nil
	}
	if q.client == nil {
		return false, fmt.Errorf("quota redis client is nil")
	}

	k := q.prefix + key
	n, err := q.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("incrementing quota: %w", err)
	}
	if n == 1 {
		if err := q.client.Expire(ctx, k, q.window).Err(); err != nil {
			return false, fmt.Errorf("setting quota window: %w", err)
		}
	}
	return n <= int64(q.limit), nil
}

// refundScript decrements a counter only while it exists and is positive, so
// a refund after the window expired cannot create a key with no TTL.
var refundScript = redis.NewScript(`
local n = tonumber(redis.call("GET", KEYS[1]) or "0")
if n > 0 then
	return redis.call("DECR", KEYS[1])
end
return 0
`)

func (q *RedisQuota) Refund(ctx context.Context, key string) error {
	if q.limit <= 0 {
		return nil
	}
	if q.client == nil {
		return fmt.Errorf("quota redis client is nil")
	}
	if err := refundScript.Run(ctx, q.client, []string{q.prefix + key}).Err(); err != nil {
		return fmt.Errorf("refunding quota: %w", err)
	}
	return nil
}
