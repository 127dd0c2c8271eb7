package imports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
)

type fakeAdapter struct {
	manufacturer domain.Manufacturer

	mu       sync.Mutex
	windows  [][2]time.Time
	handlers []RecordHandler
	fetchErr error

	block   chan struct{} // when set, FetchWindow blocks until closed
	started chan struct{} // when set, closed once FetchWindow is entered
}

func (a *fakeAdapter) Manufacturer() domain.Manufacturer {
	return a.manufacturer
}

func (a *fakeAdapter) FetchWindow(ctx context.Context, tenant domain.Tenant, from, to time.Time) ([]RecordHandler, error) {
	if a.started != nil {
		close(a.started)
		a.started = nil
	}
	if a.block != nil {
		<-a.block
	}
	a.mu.Lock()
	a.windows = append(a.windows, [2]time.Time{from, to})
	a.mu.Unlock()
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	return a.handlers, nil
}

func newTestRunner(adapter Adapter) (*Runner, *repository.MemoryWatermarksRepo, *Monitor) {
	tenants := repository.NewMemoryTenantsRepo(domain.Tenant{TenantID: "acme", FiwarePrefix: "urn:5gla:acme:"})
	watermarks := repository.NewMemoryWatermarksRepo()
	monitor := NewMonitor()
	runner := NewRunner(tenants, watermarks, []Adapter{adapter}, monitor, 14*24*time.Hour, zap.NewNop())
	return runner, watermarks, monitor
}

func succeeding(id string) RecordHandler {
	return RecordHandler{RecordID: id, Persist: func(ctx context.Context) error { return nil }}
}

func failing(id string) RecordHandler {
	return RecordHandler{RecordID: id, Persist: func(ctx context.Context) error { return errors.New("broker unavailable") }}
}

func TestRunVendor_InitialRunUsesLookbackWindow(t *testing.T) {
	adapter := &fakeAdapter{manufacturer: domain.ManufacturerSoilScout}
	runner, _, _ := newTestRunner(adapter)
	now := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	runner.now = func() time.Time { return now }

	require.NoError(t, runner.RunVendor(context.Background(), adapter))

	require.Len(t, adapter.windows, 1)
	assert.Equal(t, now.Add(-14*24*time.Hour), adapter.windows[0][0])
	assert.Equal(t, now, adapter.windows[0][1])
}

func TestRunVendor_SubsequentRunStartsAtWatermark(t *testing.T) {
	adapter := &fakeAdapter{manufacturer: domain.ManufacturerSoilScout}
	runner, watermarks, _ := newTestRunner(adapter)
	lastRun := time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC)
	require.NoError(t, watermarks.SetLastRun(context.Background(), domain.ManufacturerSoilScout, lastRun))
	now := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	runner.now = func() time.Time { return now }

	require.NoError(t, runner.RunVendor(context.Background(), adapter))

	require.Len(t, adapter.windows, 1)
	assert.Equal(t, lastRun, adapter.windows[0][0])
}

func TestRunVendor_WatermarkAdvancesDespiteRecordFailures(t *testing.T) {
	adapter := &fakeAdapter{
		manufacturer: domain.ManufacturerSoilScout,
		handlers: []RecordHandler{
			succeeding("r1"), succeeding("r2"), failing("r3"), succeeding("r4"), succeeding("r5"),
		},
	}
	runner, watermarks, monitor := newTestRunner(adapter)
	now := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	runner.now = func() time.Time { return now }

	require.NoError(t, runner.RunVendor(context.Background(), adapter))

	lastRun, ok, err := watermarks.GetLastRun(context.Background(), domain.ManufacturerSoilScout)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, now.Equal(lastRun), "watermark must advance even when records fail")

	stats, ok := monitor.Stats(domain.ManufacturerSoilScout)
	require.True(t, ok)
	assert.Equal(t, 5, stats.Fetched)
	assert.Equal(t, 4, stats.Persisted)
	assert.Equal(t, 1, stats.Errors)
	require.Len(t, stats.Failures, 1)
	assert.Equal(t, "r3", stats.Failures[0].RecordID)
}

func TestRunVendor_FetchFailureLeavesWatermarkUntouched(t *testing.T) {
	adapter := &fakeAdapter{
		manufacturer: domain.ManufacturerSoilScout,
		fetchErr:     errors.New("vendor API down"),
	}
	runner, watermarks, _ := newTestRunner(adapter)

	err := runner.RunVendor(context.Background(), adapter)

	require.Error(t, err)
	_, ok, repoErr := watermarks.GetLastRun(context.Background(), domain.ManufacturerSoilScout)
	require.NoError(t, repoErr)
	assert.False(t, ok)
}

func TestRunVendor_OverlappingTriggerIsRejected(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	adapter := &fakeAdapter{manufacturer: domain.ManufacturerSoilScout, block: block, started: started}
	runner, _, _ := newTestRunner(adapter)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- runner.RunVendor(context.Background(), adapter)
	}()

	// Wait for the first run to hold the vendor lock.
	<-started

	err := runner.RunVendor(context.Background(), adapter)
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(block)
	require.NoError(t, <-firstDone)

	// Lock is free again once the run finished.
	require.NoError(t, runner.RunVendor(context.Background(), adapter))
}
