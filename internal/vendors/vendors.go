// Package vendors contains the purpose-built integrations with the
// third party sensor APIs. Every vendor adapter fetches raw records
// for an import window and turns each record into broker-ready
// measurements through its declarative metric table.
package vendors

import (
	"context"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/fiware"
)

// EntityPersister dispatches one entity to the context broker.
type EntityPersister interface {
	Persist(ctx context.Context, tenant domain.Tenant, entity fiware.Entity) error
}

// GroupResolver maps a vendor device id to the measurement group.
type GroupResolver interface {
	Resolve(ctx context.Context, tenant domain.Tenant, sensorID string) (*domain.Group, error)
}
