package repository

import (
	"context"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// GroupsRepository reads the device grouping configuration of a
// tenant. Groups are created by provisioning and read-only here.
type GroupsRepository interface {
	// FindGroupBySensorID returns the group a vendor device id is
	// explicitly mapped to, or nil when no mapping exists.
	FindGroupBySensorID(ctx context.Context, tenantID, sensorID string) (*domain.Group, error)

	// GetDefaultGroup returns the tenant's default group.
	GetDefaultGroup(ctx context.Context, tenantID string) (*domain.Group, error)
}
