// Package imports drives the scheduled measurement imports: fetch
// window computation from the per-vendor watermark, fan-out to the
// vendor adapters and the broker, per-record failure isolation and
// run metrics.
package imports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
)

// RecordHandler persists the downstream entities of one upstream
// vendor record when invoked.
type RecordHandler struct {
	RecordID string
	Persist  func(ctx context.Context) error
}

// Adapter is a purpose-built vendor integration. FetchWindow returns
// one handler per upstream record in the window; the runner invokes
// them with per-record failure isolation.
type Adapter interface {
	Manufacturer() domain.Manufacturer
	FetchWindow(ctx context.Context, tenant domain.Tenant, from, to time.Time) ([]RecordHandler, error)
}

// ErrRunInProgress rejects a trigger that overlaps a running import of
// the same vendor.
var ErrRunInProgress = errors.New("import run already in progress for this vendor")

// Runner executes one import run per vendor. Runs of the same vendor
// are serialized; overlapping triggers are rejected, not queued.
type Runner struct {
	tenantsRepo    repository.TenantsRepository
	watermarksRepo repository.WatermarksRepository
	adapters       []Adapter
	monitor        *Monitor
	lookback       time.Duration
	logger         *zap.Logger

	mu      sync.Mutex
	running map[domain.Manufacturer]bool

	// now is swappable for tests.
	now func() time.Time
}

func NewRunner(
	tenantsRepo repository.TenantsRepository,
	watermarksRepo repository.WatermarksRepository,
	adapters []Adapter,
	monitor *Monitor,
	lookback time.Duration,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		tenantsRepo:    tenantsRepo,
		watermarksRepo: watermarksRepo,
		adapters:       adapters,
		monitor:        monitor,
		lookback:       lookback,
		logger:         logger,
		running:        map[domain.Manufacturer]bool{},
		now:            time.Now,
	}
}

// RunAll runs every vendor import sequentially. Per-vendor errors are
// logged and do not stop the remaining vendors.
func (r *Runner) RunAll(ctx context.Context) {
	for _, adapter := range r.adapters {
		if err := r.RunVendor(ctx, adapter); err != nil {
			r.logger.Error("Import run failed",
				zap.String("manufacturer", string(adapter.Manufacturer())),
				zap.Error(err),
			)
		}
	}
}

// RunVendor runs one vendor import. The fetch window is
// [watermark, now), or [now - lookback, now) on the initial run. The
// watermark advances to the run start time once the run completes,
// regardless of per-record persistence failures along the way; a
// fetch failure aborts the run and leaves the watermark untouched.
func (r *Runner) RunVendor(ctx context.Context, adapter Adapter) error {
	manufacturer := adapter.Manufacturer()
	if !r.tryAcquire(manufacturer) {
		r.logger.Warn("Rejecting overlapping import trigger",
			zap.String("manufacturer", string(manufacturer)),
		)
		return ErrRunInProgress
	}
	defer r.release(manufacturer)

	begin := r.now()
	r.monitor.BeginRun(manufacturer, begin)
	defer func() {
		r.monitor.LogExecutionTime(manufacturer, r.now().Sub(begin))
	}()

	from, err := r.windowStart(ctx, manufacturer, begin)
	if err != nil {
		return err
	}

	r.logger.Info("Running scheduled data import",
		zap.String("manufacturer", string(manufacturer)),
		zap.Time("from", from),
		zap.Time("to", begin),
	)

	tenants, err := r.tenantsRepo.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}

	for _, tenant := range tenants {
		handlers, err := adapter.FetchWindow(ctx, tenant, from, begin)
		if err != nil {
			return fmt.Errorf("failed to fetch records for tenant %s: %w", tenant.TenantID, err)
		}
		r.monitor.LogEntitiesFetched(manufacturer, len(handlers))
		r.logger.Info("Persisting measurements",
			zap.String("manufacturer", string(manufacturer)),
			zap.String("tenant_id", tenant.TenantID),
			zap.Int("records", len(handlers)),
		)

		for _, handler := range handlers {
			// One failing record must not abort the run.
			if err := handler.Persist(ctx); err != nil {
				r.logger.Error("Error while persisting record during scheduled import",
					zap.String("manufacturer", string(manufacturer)),
					zap.String("record_id", handler.RecordID),
					zap.Error(err),
				)
				r.monitor.LogErrorDuringExecution(manufacturer, handler.RecordID, err)
				continue
			}
			r.monitor.LogEntityPersisted(manufacturer)
		}
	}

	if err := r.watermarksRepo.SetLastRun(ctx, manufacturer, begin); err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}

	r.logger.Info("Finished scheduled data import",
		zap.String("manufacturer", string(manufacturer)),
	)
	return nil
}

func (r *Runner) windowStart(ctx context.Context, manufacturer domain.Manufacturer, now time.Time) (time.Time, error) {
	lastRun, ok, err := r.watermarksRepo.GetLastRun(ctx, manufacturer)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read watermark: %w", err)
	}
	if !ok {
		r.logger.Info("Running initial data import, this may take a while",
			zap.String("manufacturer", string(manufacturer)),
		)
		return now.Add(-r.lookback), nil
	}
	return lastRun, nil
}

func (r *Runner) tryAcquire(manufacturer domain.Manufacturer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[manufacturer] {
		return false
	}
	r.running[manufacturer] = true
	return true
}

func (r *Runner) release(manufacturer domain.Manufacturer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, manufacturer)
}
