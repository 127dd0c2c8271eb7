package repository

import (
	"context"
	"sync"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// MemoryGroupsRepo is an in-memory GroupsRepository for tests and
// DB-less local runs.
type MemoryGroupsRepo struct {
	mu     sync.RWMutex
	groups []domain.Group
}

func NewMemoryGroupsRepo(groups ...domain.Group) *MemoryGroupsRepo {
	return &MemoryGroupsRepo{groups: groups}
}

func (r *MemoryGroupsRepo) FindGroupBySensorID(_ context.Context, tenantID, sensorID string) (*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, group := range r.groups {
		if group.TenantID != tenantID {
			continue
		}
		for _, id := range group.SensorIDs {
			if id == sensorID {
				copied := group
				return &copied, nil
			}
		}
	}
	return nil, nil
}

func (r *MemoryGroupsRepo) GetDefaultGroup(_ context.Context, tenantID string) (*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, group := range r.groups {
		if group.TenantID == tenantID && group.DefaultGroupForTenant {
			copied := group
			return &copied, nil
		}
	}
	return nil, nil
}
