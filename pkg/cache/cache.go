package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vetlink/backend/pkg/logger"
	"github.com/vetlink/backend/pkg/redis"
)

// Store is a read-through TTL cache. When a redis client is supplied entries
// live there; otherwise an in-process map serves as the backing store, so the
// API keeps working on single-node deployments without redis.
type Store struct {
	redis      *redis.Client
	defaultTTL time.Duration
	group      singleflight.Group
	logg       *logger.Logger

	mu  sync.RWMutex
	mem map[string]memEntry
}

type memEntry struct {
	payload   []byte
	expiresAt time.Time
}

// Options configures a cache store.
type Options struct {
	Redis      *redis.Client
	DefaultTTL time.Duration
	Logger     *logger.Logger
}

// New builds a cache store. Redis and Logger are optional.
func New(opts Options) *Store {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Store{
		redis:      opts.Redis,
		defaultTTL: ttl,
		logg:       opts.Logger,
		mem:        make(map[string]memEntry),
	}
}

// Key joins parts into a stable cache key.
func Key(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		clean = append(clean, p)
	}
	return strings.Join(clean, ":")
}

// Get unmarshals the cached payload at key into dest. The second return is
// false on a miss or an expired entry.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	payload, ok, err := s.fetch(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		// A corrupt entry behaves like a miss; the caller re-computes.
		s.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// Set stores value at key for ttl. A non-positive ttl uses the default.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	if s.redis != nil {
		return s.redis.Set(ctx, s.redis.CacheKey(key), string(payload), ttl)
	}
	s.mu.Lock()
	s.mem[key] = memEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// versionTTL bounds how long a namespace version lives. An expired version
// just forces the next reader to mint a fresh one and recompute.
const versionTTL = 24 * time.Hour

// Version returns the current version token for a namespace. Keys built with
// the token stop matching after Bump rotates it. On a miss a fresh token is
// minted and stored best effort; a failed store only costs extra recomputes.
func (s *Store) Version(ctx context.Context, namespace string) string {
	key := Key("ns", namespace)
	var version string
	if ok, err := s.Get(ctx, key, &version); err == nil && ok && version != "" {
		return version
	}
	version = uuid.NewString()
	if err := s.Set(ctx, key, version, versionTTL); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"namespace": namespace, "error": err.Error()}), "cache version write failed")
	}
	return version
}

// Bump rotates the namespace version, orphaning every key built from the old
// token. Orphans age out through their own TTLs.
func (s *Store) Bump(ctx context.Context, namespace string) {
	if err := s.Set(ctx, Key("ns", namespace), uuid.NewString(), versionTTL); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"namespace": namespace, "error": err.Error()}), "cache version bump failed")
	}
}

// Delete evicts the entry at key.
func (s *Store) Delete(ctx context.Context, key string) {
	if s.redis != nil {
		if err := s.redis.Del(ctx, s.redis.CacheKey(key)); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "cache delete failed")
		}
		return
	}
	s.mu.Lock()
	delete(s.mem, key)
	s.mu.Unlock()
}

// Wrap returns the cached payload at key, or runs fn once to compute it and
// caches the result. Concurrent callers for the same key share a single fn
// invocation. Cache backend failures degrade to calling fn directly.
func (s *Store) Wrap(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) (any, error)) (json.RawMessage, error) {
	payload, ok, err := s.fetch(ctx, key)
	if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "cache read failed")
	}
	if ok {
		return payload, nil
	}

	out, err, _ := s.group.Do(key, func() (any, error) {
		// Re-check: another flight may have populated the key while this
		// caller was queued behind the in-progress one.
		if payload, ok, _ := s.fetch(ctx, key); ok {
			return json.RawMessage(payload), nil
		}
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal cache value: %w", err)
		}
		if err := s.Set(ctx, key, json.RawMessage(raw), ttl); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "cache write failed")
		}
		return json.RawMessage(raw), nil
	})
	if err != nil {
		return nil, err
	}
	return out.(json.RawMessage), nil
}

func (s *Store) fetch(ctx context.Context, key string) ([]byte, bool, error) {
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, s.redis.CacheKey(key))
		if err == redis.Nil {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return []byte(raw), true, nil
	}

	s.mu.RLock()
	entry, ok := s.mem[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.mem, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return entry.payload, true, nil
}
