package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/shopfront/pkg/redis"
)

// SessionStore persists the raw cart lines of a session.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) ([]Line, error)
	Save(ctx context.Context, sessionID string, lines []Line) error
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore keeps carts in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string][]byte
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[string][]byte{}}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) ([]Line, error) {
	m.mu.Lock()
	raw := m.carts[sessionID]
	m.mu.Unlock()
	return Decode(raw)
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, lines []Line) error {
	raw, err := Encode(lines)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(lines) == 0 {
		delete(m.carts, sessionID)
		return nil
	}
	m.carts[sessionID] = raw
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

type keyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Touch(ctx context.Context, key string, ttl time.Duration) error
	CartKey(sessionID string) string
}

// RedisStore keeps carts in redis with a sliding TTL.
type RedisStore struct {
	client keyValueStore
	ttl    time.Duration
}

// NewRedisStore wraps a redis client. A non-positive ttl keeps carts forever.
func NewRedisStore(client keyValueStore, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) ([]Line, error) {
	key := r.client.CartKey(sessionID)
	raw, err := r.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return []Line{}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if err := r.client.Touch(ctx, key, r.ttl); err != nil {
		return nil, fmt.Errorf("refresh cart ttl: %w", err)
	}
	return Decode([]byte(raw))
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, lines []Line) error {
	if len(lines) == 0 {
		return r.Clear(ctx, sessionID)
	}
	raw, err := Encode(lines)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.client.CartKey(sessionID), string(raw), r.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.client.CartKey(sessionID)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
