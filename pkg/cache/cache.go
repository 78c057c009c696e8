// Package cache stores JSON-encoded values in Redis, falling back to an
// in-process map when Redis is not reachable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
)

var (
	RDB *redis.Client

	mem = newMemoryStore()
)

// Connect initialises the Redis client and pings it. On failure RDB stays
// nil and every call is served by the in-memory store.
func Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		RDB = nil
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	RDB = client
	return nil
}

// Close releases the Redis connection, if any.
func Close() error {
	if RDB == nil {
		return nil
	}
	err := RDB.Close()
	RDB = nil
	return err
}

// Driver reports which backend is serving requests.
func Driver() string {
	if RDB != nil {
		return "redis"
	}
	return "memory"
}

// Get loads key into dest. Returns true on a hit.
func Get(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := getRaw(ctx, key)
	if !ok {
		metrics.CacheMisses.WithLabelValues(Driver()).Inc()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.CacheMisses.WithLabelValues(Driver()).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(Driver()).Inc()
	return true
}

// Set stores value under key for ttl.
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if RDB != nil {
		return RDB.Set(ctx, key, data, ttl).Err()
	}
	mem.set(key, data, ttl)
	return nil
}

// Has reports whether key is present.
func Has(ctx context.Context, key string) (bool, error) {
	if RDB != nil {
		n, err := RDB.Exists(ctx, key).Result()
		if err != nil {
			return false, fmt.Errorf("cache: exists %s: %w", key, err)
		}
		return n > 0, nil
	}
	_, ok := mem.get(key)
	return ok, nil
}

// Forget removes keys.
func Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if RDB != nil {
		return RDB.Del(ctx, keys...).Err()
	}
	for _, k := range keys {
		mem.del(k)
	}
	return nil
}

// Remember returns the cached value for key or computes it with fn, caches
// it for ttl and decodes it into dest.
func Remember(ctx context.Context, key string, ttl time.Duration, dest interface{}, fn func() (interface{}, error)) error {
	if Get(ctx, key, dest) {
		return nil
	}
	v, err := fn()
	if err != nil {
		return err
	}
	if err := Set(ctx, key, v, ttl); err != nil {
		logger.WithCtx(ctx).Warn("cache: write failed", "key", key, "error", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return json.Unmarshal(data, dest)
}

// Flush empties the in-memory store. Tests use it between cases.
func Flush() {
	mem.flush()
}

func getRaw(ctx context.Context, key string) ([]byte, bool) {
	if RDB != nil {
		val, err := RDB.Get(ctx, key).Bytes()
		if err != nil {
			return nil, false
		}
		return val, true
	}
	return mem.get(key)
}

// ─── In-memory fallback ───────────────────────────────────────────────────────

type memEntry struct {
	data    []byte
	expires time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]memEntry{}}
}

func (m *memoryStore) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(m.entries, key)
		return nil, false
	}
	return e.data, true
}

func (m *memoryStore) set(key string, data []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{data: data}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	m.entries[key] = e
}

func (m *memoryStore) del(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *memoryStore) flush() {
	m.mu.Lock()
	m.entries = map[string]memEntry{}
	m.mu.Unlock()
}

// ─── Token revocation list ────────────────────────────────────────────────────

const revokedPrefix = "auth:revoked:"

// Revocations keeps revoked token IDs in the cache until they expire.
type Revocations struct{}

func (Revocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return errors.New("cache: empty token id")
	}
	return Set(ctx, revokedPrefix+tokenID, true, ttl)
}

func (Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return Has(ctx, revokedPrefix+tokenID)
}
