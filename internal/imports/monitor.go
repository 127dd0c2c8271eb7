package imports

import (
	"sync"
	"time"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// RecordFailure is one record that could not be persisted during a
// run. Failures do not block the watermark; the list exists so
// operators and tests can see what was lost.
type RecordFailure struct {
	RecordID string
	Message  string
}

// RunStats is the outcome of the most recent import run of a vendor.
type RunStats struct {
	Manufacturer domain.Manufacturer
	LastRunAt    time.Time
	Fetched      int
	Persisted    int
	Errors       int
	Duration     time.Duration
	Failures     []RecordFailure
}

// Monitor aggregates per-vendor import run metrics.
type Monitor struct {
	mu    sync.Mutex
	stats map[domain.Manufacturer]*RunStats
}

func NewMonitor() *Monitor {
	return &Monitor{stats: map[domain.Manufacturer]*RunStats{}}
}

// BeginRun resets the vendor's stats for a new run.
func (m *Monitor) BeginRun(manufacturer domain.Manufacturer, startedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[manufacturer] = &RunStats{
		Manufacturer: manufacturer,
		LastRunAt:    startedAt,
	}
}

// LogEntitiesFetched counts records fetched from the vendor API.
func (m *Monitor) LogEntitiesFetched(manufacturer domain.Manufacturer, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current(manufacturer).Fetched += count
}

// LogEntityPersisted counts one successfully persisted record.
func (m *Monitor) LogEntityPersisted(manufacturer domain.Manufacturer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current(manufacturer).Persisted++
}

// LogErrorDuringExecution records one failed record.
func (m *Monitor) LogErrorDuringExecution(manufacturer domain.Manufacturer, recordID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.current(manufacturer)
	stats.Errors++
	stats.Failures = append(stats.Failures, RecordFailure{RecordID: recordID, Message: err.Error()})
}

// LogExecutionTime records the total run duration.
func (m *Monitor) LogExecutionTime(manufacturer domain.Manufacturer, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current(manufacturer).Duration = duration
}

// Stats returns a copy of the vendor's latest run stats.
func (m *Monitor) Stats(manufacturer domain.Manufacturer) (RunStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.stats[manufacturer]
	if !ok {
		return RunStats{}, false
	}
	copied := *stats
	copied.Failures = append([]RecordFailure(nil), stats.Failures...)
	return copied, true
}

// Snapshot returns the latest run stats of every vendor that ran.
func (m *Monitor) Snapshot() []RunStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]RunStats, 0, len(m.stats))
	for _, stats := range m.stats {
		copied := *stats
		copied.Failures = append([]RecordFailure(nil), stats.Failures...)
		snapshot = append(snapshot, copied)
	}
	return snapshot
}

func (m *Monitor) current(manufacturer domain.Manufacturer) *RunStats {
	stats, ok := m.stats[manufacturer]
	if !ok {
		stats = &RunStats{Manufacturer: manufacturer}
		m.stats[manufacturer] = stats
	}
	return stats
}
