package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// MemoryTenantsRepo is an in-memory TenantsRepository for tests and
// DB-less local runs.
type MemoryTenantsRepo struct {
	mu      sync.RWMutex
	tenants map[string]domain.Tenant
}

func NewMemoryTenantsRepo(tenants ...domain.Tenant) *MemoryTenantsRepo {
	repo := &MemoryTenantsRepo{tenants: map[string]domain.Tenant{}}
	for _, tenant := range tenants {
		repo.tenants[tenant.TenantID] = tenant
	}
	return repo
}

func (r *MemoryTenantsRepo) GetTenant(_ context.Context, tenantID string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tenant, ok := r.tenants[tenantID]; ok {
		copied := tenant
		return &copied, nil
	}
	return nil, nil
}

func (r *MemoryTenantsRepo) ListTenants(_ context.Context) ([]domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenants := make([]domain.Tenant, 0, len(r.tenants))
	for _, tenant := range r.tenants {
		tenants = append(tenants, tenant)
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].TenantID < tenants[j].TenantID })
	return tenants, nil
}
