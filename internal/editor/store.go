package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/voyagen/sectionvault/internal/cache"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found or expired")

// Store keeps editing sessions between requests. Put overwrites; the last
// writer of a session wins.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON values with a sliding TTL.
type RedisStore struct {
	redis  *cache.Redis
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store on an existing connection. A zero ttl keeps
// sessions until deleted.
func NewRedisStore(r *cache.Redis, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: r, prefix: "session:", ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := cache.Get[*Session](ctx, s.redis, s.key(id))
	if cache.IsMiss(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	if err := cache.Set(ctx, s.redis, s.key(sess.ID), sess, s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := cache.Del(ctx, s.redis, s.key(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// MemoryStore keeps encoded sessions in process. Used when no Redis is
// configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	raw, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &sess, nil
}

func (m *MemoryStore) Put(_ context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	m.mu.Lock()
	m.sessions[sess.ID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
