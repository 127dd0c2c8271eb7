package repository

import (
	"context"
	"database/sql"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

type PostgresTenantsRepo struct {
	db *sql.DB
}

func NewPostgresTenantsRepo(db *sql.DB) *PostgresTenantsRepo {
	return &PostgresTenantsRepo{db: db}
}

func (r *PostgresTenantsRepo) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	q := `
		SELECT tenant_id, name, fiware_prefix
		FROM tenants
		WHERE tenant_id = $1`
	var tenant domain.Tenant
	err := r.db.QueryRowContext(ctx, q, tenantID).Scan(&tenant.TenantID, &tenant.Name, &tenant.FiwarePrefix)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *PostgresTenantsRepo) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	q := `
		SELECT tenant_id, name, fiware_prefix
		FROM tenants
		ORDER BY tenant_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(&tenant.TenantID, &tenant.Name, &tenant.FiwarePrefix); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}
