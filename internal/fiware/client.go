package fiware

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/apierror"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// HeaderFiwareService scopes every broker call to a tenant.
const HeaderFiwareService = "Fiware-Service"

// EntityClient sends entities to the context broker. One upsert-style
// call per entity; no retries at this layer, retry policy belongs to
// the caller.
type EntityClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewEntityClient creates a broker entity client.
func NewEntityClient(brokerURL string, logger *zap.Logger) *EntityClient {
	client := resty.New().
		SetBaseURL(brokerURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &EntityClient{
		httpClient: client,
		logger:     logger,
	}
}

// Persist validates the entity and appends it in the broker. Transport
// failures and non-2xx statuses both map to a FiwareIntegrationError
// carrying the remote response body when available.
func (c *EntityClient) Persist(ctx context.Context, tenant domain.Tenant, entity Entity) error {
	if err := CheckEntity(entity); err != nil {
		return err
	}

	raw, err := json.Marshal(entity)
	if err != nil {
		return apierror.Wrap(apierror.CodeFiwareIntegration, "could not serialize entity", err)
	}

	body := map[string]any{
		"actionType": "append",
		"entities":   []json.RawMessage{raw},
	}

	c.logger.Debug("Persisting entity in context broker",
		zap.String("tenant_id", tenant.TenantID),
		zap.String("entity_id", entity.EntityID()),
		zap.String("entity_type", entity.EntityType()),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader(HeaderFiwareService, tenant.TenantID).
		SetBody(body).
		Post("/v2/op/update")
	if err != nil {
		c.logger.Error("Could not persist entity in context broker", zap.Error(err))
		return apierror.Wrap(apierror.CodeFiwareIntegration, "could not persist entity, transport failure", err)
	}
	if !resp.IsSuccess() {
		c.logger.Error("Context broker rejected entity",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("response", resp.String()),
		)
		return apierror.New(apierror.CodeFiwareIntegration,
			fmt.Sprintf("could not persist entity, broker returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	c.logger.Debug("Entity persisted in context broker",
		zap.String("entity_id", entity.EntityID()),
	)
	return nil
}
