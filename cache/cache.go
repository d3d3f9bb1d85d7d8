package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a byte-oriented key/value cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryStore keeps entries in process memory. A janitor goroutine purges
// expired entries every janitorInterval.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time

	ticker   *time.Ticker
	stop     chan struct{}
	stopOnce sync.Once
}

type Option func(*MemoryStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(m *MemoryStore) { m.now = now } }

// WithJanitor purges expired entries every interval.
func WithJanitor(interval time.Duration) Option {
	return func(m *MemoryStore) {
		if interval > 0 {
			m.ticker = time.NewTicker(interval)
		}
	}
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	m := &MemoryStore{
		data: make(map[string]entry),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}

	if m.ticker != nil {
		go func() {
			for {
				select {
				case <-m.ticker.C:
					m.purgeExpired()
				case <-m.stop:
					return
				}
			}
		}()
	}
	return m
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Len counts live and not-yet-purged entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.stop)
	})
	return nil
}

func (m *MemoryStore) purgeExpired() {
	now := m.now()
	m.mu.Lock()
	for k, e := range m.data {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(m.data, k)
		}
	}
	m.mu.Unlock()
}

// RedisStore is a Store backed by Redis string keys.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Close is a no-op; the client is shared and closed by its owner.
func (r *RedisStore) Close() error {
	return nil
}
