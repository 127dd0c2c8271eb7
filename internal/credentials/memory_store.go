package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// MemoryStore is an in-memory Store for tests and redis-less runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.Manufacturer]memoryEntry

	// now is swappable for expiry tests.
	now func() time.Time
}

type memoryEntry struct {
	credentials Credentials
	expiresAt   time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[domain.Manufacturer]memoryEntry{},
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, manufacturer domain.Manufacturer) (*Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[manufacturer]
	if !ok || s.now().After(entry.expiresAt) {
		return nil, nil
	}
	copied := entry.credentials
	return &copied, nil
}

func (s *MemoryStore) Put(_ context.Context, manufacturer domain.Manufacturer, credentials Credentials, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[manufacturer] = memoryEntry{
		credentials: credentials,
		expiresAt:   s.now().Add(ttl),
	}
	return nil
}
