// Package groups resolves the device group a measurement is tagged
// with. The default-group fallback is a capability-scoped policy:
// ingestion availability is prioritized over grouping correctness.
package groups

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
)

// Resolver maps (tenant, vendor device id) to a group.
type Resolver struct {
	groupsRepo repository.GroupsRepository
	logger     *zap.Logger
}

func NewResolver(groupsRepo repository.GroupsRepository, logger *zap.Logger) *Resolver {
	return &Resolver{
		groupsRepo: groupsRepo,
		logger:     logger,
	}
}

// Resolve returns the explicitly mapped group for the sensor, or the
// tenant's default group when no mapping exists. The missing mapping
// is logged as a warning so operators can detect misconfiguration
// without failing ingestion.
func (r *Resolver) Resolve(ctx context.Context, tenant domain.Tenant, sensorID string) (*domain.Group, error) {
	group, err := r.groupsRepo.FindGroupBySensorID(ctx, tenant.TenantID, sensorID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up group mapping: %w", err)
	}
	if group != nil {
		return group, nil
	}

	r.logger.Warn("Looks like the group for the sensor is not set, using the default group for the tenant",
		zap.String("tenant_id", tenant.TenantID),
		zap.String("sensor_id", sensorID),
	)

	defaultGroup, err := r.groupsRepo.GetDefaultGroup(ctx, tenant.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up default group: %w", err)
	}
	if defaultGroup == nil {
		return nil, fmt.Errorf("tenant %s has no default group", tenant.TenantID)
	}
	return defaultGroup, nil
}
