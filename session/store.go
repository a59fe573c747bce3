package session

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
)

// Store is the durable namespaced string store. All reads and writes are
// synchronous against an in-process mirror; Redis replication is best-effort
// and its failures never propagate to callers. A nil Redis client yields a
// purely in-memory store, which is valid for tests and degraded operation.
type Store struct {
	client redis.UniversalClient
	prefix string
	logger logr.Logger

	onError func()

	mu     sync.RWMutex
	mirror map[string]string
	absent map[string]struct{}
}

// NewStore creates a [Store] namespaced under the given prefix.
func NewStore(client redis.UniversalClient, prefix string, logger logr.Logger) *Store {
	if prefix == "" {
		prefix = "posauth"
	}
	return &Store{
		client: client,
		prefix: prefix,
		logger: logger,
		mirror: make(map[string]string),
		absent: make(map[string]struct{}),
	}
}

// SetErrorHook installs a callback invoked on every swallowed storage
// failure. Called once during engine construction, before first use.
func (s *Store) SetErrorHook(fn func()) {
	s.onError = fn
}

func (s *Store) namespaced(key string) string {
	return s.prefix + ":" + key
}

func (s *Store) fail(op, key string, err error) {
	s.logger.V(1).Info("storage operation failed", "op", op, "key", key, "error", err.Error())
	if s.onError != nil {
		s.onError()
	}
}

// Get returns the stored value for key, or false when absent. The mirror is
// consulted first; a cold key falls back to Redis once and is cached either
// way.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	s.mu.RLock()
	if v, ok := s.mirror[key]; ok {
		s.mu.RUnlock()
		return v, true
	}
	if _, tombstoned := s.absent[key]; tombstoned {
		s.mu.RUnlock()
		return "", false
	}
	s.mu.RUnlock()

	if s.client == nil {
		return "", false
	}

	v, err := s.client.Get(ctx, s.namespaced(key)).Result()
	if err != nil {
		if err != redis.Nil {
			s.fail("get", key, err)
			return "", false
		}
		s.mu.Lock()
		s.absent[key] = struct{}{}
		s.mu.Unlock()
		return "", false
	}

	s.mu.Lock()
	s.mirror[key] = v
	delete(s.absent, key)
	s.mu.Unlock()
	return v, true
}

// Set stores value under key. The mirror is updated synchronously; the Redis
// write is best-effort.
func (s *Store) Set(ctx context.Context, key, value string) {
	s.mu.Lock()
	s.mirror[key] = value
	delete(s.absent, key)
	s.mu.Unlock()

	if s.client == nil {
		return
	}
	if err := s.client.Set(ctx, s.namespaced(key), value, 0).Err(); err != nil {
		s.fail("set", key, err)
	}
}

// Remove deletes key. A tombstone prevents a failed Redis delete from
// resurrecting the value on a later cold read.
func (s *Store) Remove(ctx context.Context, key string) {
	s.mu.Lock()
	delete(s.mirror, key)
	s.absent[key] = struct{}{}
	s.mu.Unlock()

	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, s.namespaced(key)).Err(); err != nil {
		s.fail("remove", key, err)
	}
}

// RemoveAll deletes every given key, mirroring [Store.Remove] per key but
// batching the Redis round-trip.
func (s *Store) RemoveAll(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}

	s.mu.Lock()
	for _, key := range keys {
		delete(s.mirror, key)
		s.absent[key] = struct{}{}
	}
	s.mu.Unlock()

	if s.client == nil {
		return
	}
	namespaced := make([]string, len(keys))
	for i, key := range keys {
		namespaced[i] = s.namespaced(key)
	}
	if err := s.client.Del(ctx, namespaced...).Err(); err != nil {
		s.fail("remove_all", "", err)
	}
}
