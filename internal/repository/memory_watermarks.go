package repository

import (
	"context"
	"sync"
	"time"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// MemoryWatermarksRepo is an in-memory WatermarksRepository for tests
// and DB-less local runs.
type MemoryWatermarksRepo struct {
	mu       sync.RWMutex
	lastRuns map[domain.Manufacturer]time.Time
}

func NewMemoryWatermarksRepo() *MemoryWatermarksRepo {
	return &MemoryWatermarksRepo{lastRuns: map[domain.Manufacturer]time.Time{}}
}

func (r *MemoryWatermarksRepo) GetLastRun(_ context.Context, manufacturer domain.Manufacturer) (time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lastRun, ok := r.lastRuns[manufacturer]
	return lastRun, ok, nil
}

func (r *MemoryWatermarksRepo) SetLastRun(_ context.Context, manufacturer domain.Manufacturer, lastRun time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRuns[manufacturer] = lastRun
	return nil
}
