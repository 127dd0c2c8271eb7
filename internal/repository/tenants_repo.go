package repository

import (
	"context"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// TenantsRepository reads provisioned tenants. Provisioning itself
// happens outside of the integration services; the repository is
// read-only here.
type TenantsRepository interface {
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
}
