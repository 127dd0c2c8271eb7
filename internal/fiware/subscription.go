package fiware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/apierror"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// SubscriptionStatus is the broker-side subscription state.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

// SubscriptionEntity is one subject matcher of a subscription.
type SubscriptionEntity struct {
	IDPattern string `json:"idPattern,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Subject is the matching part of a subscription.
type Subject struct {
	Entities []SubscriptionEntity `json:"entities,omitempty"`
}

// HTTPTarget is the notification target URL.
type HTTPTarget struct {
	URL string `json:"url,omitempty"`
}

// Notification describes where the broker delivers notifications.
type Notification struct {
	HTTP *HTTPTarget `json:"http,omitempty"`
}

// Subscription is a broker-side notification registration. The id is
// broker-assigned and absent until created.
type Subscription struct {
	ID           string             `json:"id,omitempty"`
	Description  string             `json:"description,omitempty"`
	Subject      *Subject           `json:"subject,omitempty"`
	Notification *Notification      `json:"notification,omitempty"`
	Expires      *time.Time         `json:"expires,omitempty"`
	Status       SubscriptionStatus `json:"status,omitempty"`
	Throttling   int                `json:"throttling"`
}

// Validate fails fast on invariant violations before the subscription
// is sent to the broker.
func (s *Subscription) Validate() error {
	if s.Subject == nil {
		return errors.New("subject must not be nil")
	}
	if s.Notification == nil {
		return errors.New("notification must not be nil")
	}
	if s.Status == "" {
		return errors.New("status must be set")
	}
	if s.Throttling < 0 {
		return errors.New("throttling must not be negative")
	}
	return nil
}

// SubscriptionClient reconciles broker-side subscriptions with the
// desired entity-type set, per tenant.
type SubscriptionClient struct {
	httpClient       *resty.Client
	notificationURLs []string
	logger           *zap.Logger
}

// NewSubscriptionClient creates a subscription client targeting the
// configured notification URLs.
func NewSubscriptionClient(brokerURL string, notificationURLs []string, logger *zap.Logger) *SubscriptionClient {
	client := resty.New().
		SetBaseURL(brokerURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &SubscriptionClient{
		httpClient:       client,
		notificationURLs: notificationURLs,
		logger:           logger,
	}
}

// Subscribe makes the desired entity-type set authoritative for the
// tenant. With no existing subscriptions one subscription per
// notification URL is created; otherwise every existing subscription is
// rewritten in place, preserving its id, description, notification URL,
// expiry and status but replacing the subject entity set. The
// reconciliation is a merge, not a full replace: notification targets
// and metadata stay untouched.
func (c *SubscriptionClient) Subscribe(ctx context.Context, tenant domain.Tenant, entityTypes ...string) error {
	existing, err := c.FindAll(ctx, tenant)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return c.updateExistingSubscriptions(ctx, tenant, existing, entityTypes)
	}
	return c.createSubscriptions(ctx, tenant, entityTypes)
}

func (c *SubscriptionClient) createSubscriptions(ctx context.Context, tenant domain.Tenant, entityTypes []string) error {
	for _, notificationURL := range c.notificationURLs {
		subscription := &Subscription{
			Description:  fmt.Sprintf("Subscription for %v type", entityTypes),
			Subject:      &Subject{Entities: subscriptionEntities(entityTypes)},
			Notification: &Notification{HTTP: &HTTPTarget{URL: notificationURL}},
			Status:       SubscriptionStatusActive,
		}
		if err := subscription.Validate(); err != nil {
			return apierror.Wrap(apierror.CodeFiwareIntegration, "invalid subscription", err)
		}

		c.logger.Debug("Creating subscription",
			zap.String("tenant_id", tenant.TenantID),
			zap.String("notification_url", notificationURL),
			zap.Strings("entity_types", entityTypes),
		)

		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetHeader(HeaderFiwareService, tenant.TenantID).
			SetBody(subscription).
			Post("/v2/subscriptions")
		if err != nil {
			c.logger.Error("Could not create subscription", zap.Error(err))
			return apierror.Wrap(apierror.CodeFiwareIntegration, "could not create subscription", err)
		}
		if resp.StatusCode() != 201 {
			c.logger.Error("Could not create subscription",
				zap.Int("status_code", resp.StatusCode()),
				zap.String("response", resp.String()),
			)
			return apierror.New(apierror.CodeFiwareIntegration,
				fmt.Sprintf("could not create subscription, broker returned status %d: %s", resp.StatusCode(), resp.String()))
		}
		c.logger.Info("Subscription created successfully",
			zap.String("tenant_id", tenant.TenantID),
			zap.String("notification_url", notificationURL),
		)
	}
	return nil
}

func (c *SubscriptionClient) updateExistingSubscriptions(ctx context.Context, tenant domain.Tenant, existing []Subscription, entityTypes []string) error {
	for _, subscription := range existing {
		updated := &Subscription{
			ID:           subscription.ID,
			Description:  subscription.Description,
			Subject:      &Subject{Entities: subscriptionEntities(entityTypes)},
			Notification: subscription.Notification,
			Expires:      subscription.Expires,
			Status:       subscription.Status,
			Throttling:   subscription.Throttling,
		}
		if err := updated.Validate(); err != nil {
			return apierror.Wrap(apierror.CodeFiwareIntegration, "invalid subscription", err)
		}

		c.logger.Debug("Updating subscription",
			zap.String("tenant_id", tenant.TenantID),
			zap.String("subscription_id", subscription.ID),
			zap.Strings("entity_types", entityTypes),
		)

		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetHeader(HeaderFiwareService, tenant.TenantID).
			SetBody(updated).
			Put("/v2/subscriptions/" + subscription.ID)
		if err != nil {
			c.logger.Error("Could not update subscription", zap.Error(err))
			return apierror.Wrap(apierror.CodeFiwareIntegration, "could not update subscription", err)
		}
		// The broker answers updates with the creation status code.
		if resp.StatusCode() != 201 {
			c.logger.Error("Could not update subscription",
				zap.Int("status_code", resp.StatusCode()),
				zap.String("response", resp.String()),
			)
			return apierror.New(apierror.CodeFiwareIntegration,
				fmt.Sprintf("could not update subscription, broker returned status %d: %s", resp.StatusCode(), resp.String()))
		}
		c.logger.Info("Subscription updated successfully",
			zap.String("subscription_id", subscription.ID),
		)
	}
	return nil
}

// RemoveAll deletes every subscription of the tenant. Deletion is not
// transactional across subscriptions; a failure mid-iteration leaves
// the remaining ones in place, which a retry can delete again.
func (c *SubscriptionClient) RemoveAll(ctx context.Context, tenant domain.Tenant) error {
	existing, err := c.FindAll(ctx, tenant)
	if err != nil {
		return err
	}
	for _, subscription := range existing {
		if err := c.remove(ctx, tenant, subscription); err != nil {
			return err
		}
	}
	return nil
}

func (c *SubscriptionClient) remove(ctx context.Context, tenant domain.Tenant, subscription Subscription) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader(HeaderFiwareService, tenant.TenantID).
		Delete("/v2/subscriptions/" + subscription.ID)
	if err != nil {
		c.logger.Error("Could not remove subscription", zap.Error(err))
		return apierror.Wrap(apierror.CodeFiwareIntegration, "could not remove subscription", err)
	}
	if resp.StatusCode() != 204 {
		c.logger.Error("Could not remove subscription",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("response", resp.String()),
		)
		return apierror.New(apierror.CodeFiwareIntegration,
			fmt.Sprintf("could not remove subscription, broker returned status %d: %s", resp.StatusCode(), resp.String()))
	}
	c.logger.Info("Subscription removed successfully",
		zap.String("subscription_id", subscription.ID),
	)
	return nil
}

// FindAll lists all subscriptions of the tenant.
func (c *SubscriptionClient) FindAll(ctx context.Context, tenant domain.Tenant) ([]Subscription, error) {
	var subscriptions []Subscription
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader(HeaderFiwareService, tenant.TenantID).
		SetResult(&subscriptions).
		Get("/v2/subscriptions")
	if err != nil {
		c.logger.Error("Could not find subscriptions", zap.Error(err))
		return nil, apierror.Wrap(apierror.CodeFiwareIntegration, "could not find subscriptions", err)
	}
	if resp.StatusCode() != 200 {
		c.logger.Error("Could not find subscriptions",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("response", resp.String()),
		)
		return nil, apierror.New(apierror.CodeFiwareIntegration,
			fmt.Sprintf("could not find subscriptions, broker returned status %d: %s", resp.StatusCode(), resp.String()))
	}
	return subscriptions, nil
}

// FindAllByType lists the subscriptions whose subject matches the
// given entity type.
func (c *SubscriptionClient) FindAllByType(ctx context.Context, tenant domain.Tenant, entityType string) ([]Subscription, error) {
	all, err := c.FindAll(ctx, tenant)
	if err != nil {
		return nil, err
	}
	var matching []Subscription
	for _, subscription := range all {
		if subscription.Subject == nil {
			continue
		}
		for _, entity := range subscription.Subject.Entities {
			if entity.Type == entityType {
				matching = append(matching, subscription)
				break
			}
		}
	}
	return matching, nil
}

func subscriptionEntities(entityTypes []string) []SubscriptionEntity {
	entities := make([]SubscriptionEntity, 0, len(entityTypes))
	for _, entityType := range entityTypes {
		entities = append(entities, SubscriptionEntity{IDPattern: ".*", Type: entityType})
	}
	return entities
}
