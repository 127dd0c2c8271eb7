package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

type PostgresGroupsRepo struct {
	db *sql.DB
}

func NewPostgresGroupsRepo(db *sql.DB) *PostgresGroupsRepo {
	return &PostgresGroupsRepo{db: db}
}

func (r *PostgresGroupsRepo) FindGroupBySensorID(ctx context.Context, tenantID, sensorID string) (*domain.Group, error) {
	q := `
		SELECT g.oid, g.tenant_id, g.group_id, g.name, g.default_group_for_tenant, g.sensor_ids
		FROM groups g
		WHERE g.tenant_id = $1 AND $2 = ANY(g.sensor_ids)`
	return r.scanGroup(r.db.QueryRowContext(ctx, q, tenantID, sensorID))
}

func (r *PostgresGroupsRepo) GetDefaultGroup(ctx context.Context, tenantID string) (*domain.Group, error) {
	q := `
		SELECT g.oid, g.tenant_id, g.group_id, g.name, g.default_group_for_tenant, g.sensor_ids
		FROM groups g
		WHERE g.tenant_id = $1 AND g.default_group_for_tenant = TRUE`
	return r.scanGroup(r.db.QueryRowContext(ctx, q, tenantID))
}

func (r *PostgresGroupsRepo) scanGroup(row *sql.Row) (*domain.Group, error) {
	var group domain.Group
	err := row.Scan(
		&group.Oid,
		&group.TenantID,
		&group.GroupID,
		&group.Name,
		&group.DefaultGroupForTenant,
		pq.Array(&group.SensorIDs),
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}
