package middleware

import (
	"context"
	"sync"
	"time"

	pkgredis "github.com/angelmondragon/shopfront/pkg/redis"
)

type memoryRecord struct {
	value     string
	expiresAt time.Time
}

// MemoryIdempotencyStore keeps idempotency records in process memory for
// single-instance runs without redis.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

// NewMemoryIdempotencyStore returns an empty store.
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{records: map[string]memoryRecord{}, now: time.Now}
}

func (m *MemoryIdempotencyStore) IdempotencyKey(scope, key string) string {
	return "idempotency:" + scope + ":" + key
}

// Get returns the live record at key, or pkgredis.ErrNotFound.
func (m *MemoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[key]
	if !ok || m.expired(record) {
		delete(m.records, key)
		return "", pkgredis.ErrNotFound
	}
	return record.value, nil
}

// SetNX stores value unless a live record already exists. A non-positive ttl
// never expires.
func (m *MemoryIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record, ok := m.records[key]; ok && !m.expired(record) {
		return false, nil
	}
	str, _ := value.(string)
	record := memoryRecord{value: str}
	if ttl > 0 {
		record.expiresAt = m.now().Add(ttl)
	}
	m.records[key] = record
	return true, nil
}

func (m *MemoryIdempotencyStore) expired(record memoryRecord) bool {
	return !record.expiresAt.IsZero() && !m.now().Before(record.expiresAt)
}
