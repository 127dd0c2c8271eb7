// Package credentials caches vendor API credentials with a time-based
// expiry. The refresh is single-flight per vendor: exactly one caller
// performs the remote login while concurrent callers wait and reuse
// the published result.
package credentials

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/apierror"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// Credentials is the cached outcome of a vendor login.
type Credentials struct {
	APIKey   string            `json:"api_key"`
	Settings map[string]string `json:"settings,omitempty"`
}

// Store is the cache backing store.
type Store interface {
	// Get returns the cached credentials, or nil when absent/expired.
	Get(ctx context.Context, manufacturer domain.Manufacturer) (*Credentials, error)
	Put(ctx context.Context, manufacturer domain.Manufacturer, credentials Credentials, ttl time.Duration) error
}

// LoginFunc performs the vendor login when the cache is cold.
type LoginFunc func(ctx context.Context) (Credentials, error)

// Cache serves credentials from the store and refreshes them on
// expiry with per-vendor mutual exclusion.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger

	mu    sync.Mutex
	locks map[domain.Manufacturer]*sync.Mutex
}

func NewCache(store Store, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		store:  store,
		ttl:    ttl,
		logger: logger,
		locks:  map[domain.Manufacturer]*sync.Mutex{},
	}
}

// Get returns valid credentials for the vendor, logging in through
// login when the cached value is absent or expired. Login failures
// surface as CredentialAcquisitionError.
func (c *Cache) Get(ctx context.Context, manufacturer domain.Manufacturer, login LoginFunc) (Credentials, error) {
	if cached, err := c.store.Get(ctx, manufacturer); err == nil && cached != nil {
		return *cached, nil
	} else if err != nil {
		c.logger.Warn("Credential store lookup failed, falling through to login",
			zap.String("manufacturer", string(manufacturer)),
			zap.Error(err),
		)
	}

	lock := c.vendorLock(manufacturer)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if cached, err := c.store.Get(ctx, manufacturer); err == nil && cached != nil {
		return *cached, nil
	}

	c.logger.Info("Logging in against vendor API",
		zap.String("manufacturer", string(manufacturer)),
	)
	credentials, err := login(ctx)
	if err != nil {
		return Credentials{}, apierror.Wrap(apierror.CodeCredentialAcquisition, "could not login against the API", err)
	}

	if err := c.store.Put(ctx, manufacturer, credentials, c.ttl); err != nil {
		// A failed cache write only costs an extra login later.
		c.logger.Warn("Could not cache vendor credentials",
			zap.String("manufacturer", string(manufacturer)),
			zap.Error(err),
		)
	}
	return credentials, nil
}

func (c *Cache) vendorLock(manufacturer domain.Manufacturer) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[manufacturer]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[manufacturer] = lock
	}
	return lock
}
