// Package session stores per-visitor markers such as "already viewed".
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mx-space/publisher/internal/pkg/redis"
)

const DefaultTTL = 24 * time.Hour

// Markers is a per-session set of flags. Set reports whether the marker was
// newly created, so a single call closes the check-then-set window.
type Markers interface {
	Has(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string) (bool, error)
}

// RedisMarkers keeps markers for one visitor session under
// "session:<sid>:<key>" with a TTL.
type RedisMarkers struct {
	client    *redis.Client
	sessionID string
	ttl       time.Duration
}

func NewRedisMarkers(client *redis.Client, sessionID string, ttl time.Duration) *RedisMarkers {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisMarkers{client: client, sessionID: strings.TrimSpace(sessionID), ttl: ttl}
}

func (m *RedisMarkers) key(k string) string {
	return "session:" + m.sessionID + ":" + k
}

func (m *RedisMarkers) Has(ctx context.Context, key string) (bool, error) {
	ok, err := m.client.Exists(ctx, m.key(key))
	if err != nil {
		return false, fmt.Errorf("check session marker: %w", err)
	}
	return ok, nil
}

func (m *RedisMarkers) Set(ctx context.Context, key string) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.key(key), "1", m.ttl)
	if err != nil {
		return false, fmt.Errorf("set session marker: %w", err)
	}
	return ok, nil
}

// MemoryStore keeps markers for every session in process memory. Markers
// expire after the TTL like their Redis counterparts; expired entries are
// swept at most once per TTL during Set.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	expires   map[string]time.Time
	lastSweep time.Time
}

type MemoryOption func(*MemoryStore)

func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{ttl: DefaultTTL, now: time.Now, expires: make(map[string]time.Time)}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSweep = s.now()
	return s
}

func (s *MemoryStore) For(sessionID string) Markers {
	return &MemoryMarkers{store: s, sessionID: strings.TrimSpace(sessionID)}
}

// Len reports how many markers are held, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

func (s *MemoryStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expires[key]
	return ok && s.now().Before(exp)
}

func (s *MemoryStore) set(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastSweep) >= s.ttl {
		for k, exp := range s.expires {
			if !now.Before(exp) {
				delete(s.expires, k)
			}
		}
		s.lastSweep = now
	}
	if exp, ok := s.expires[key]; ok && now.Before(exp) {
		return false
	}
	s.expires[key] = now.Add(s.ttl)
	return true
}

// MemoryMarkers is one session's view of a MemoryStore.
type MemoryMarkers struct {
	store     *MemoryStore
	sessionID string
}

// NewMemoryMarkers returns markers backed by a private store with the default TTL.
func NewMemoryMarkers() *MemoryMarkers {
	return &MemoryMarkers{store: NewMemoryStore()}
}

func (m *MemoryMarkers) key(k string) string { return m.sessionID + ":" + k }

func (m *MemoryMarkers) Has(_ context.Context, key string) (bool, error) {
	return m.store.has(m.key(key)), nil
}

func (m *MemoryMarkers) Set(_ context.Context, key string) (bool, error) {
	return m.store.set(m.key(key)), nil
}

// Store resolves the marker set of a visitor session.
type Store interface {
	For(sessionID string) Markers
}

// RedisStore hands out RedisMarkers sharing one client.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) For(sessionID string) Markers {
	return NewRedisMarkers(s.client, sessionID, s.ttl)
}
