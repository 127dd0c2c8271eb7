package repository

import (
	"context"
	"time"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// WatermarksRepository tracks the per-vendor last-successful-run
// timestamp, the sole cross-run state of the import controller.
type WatermarksRepository interface {
	// GetLastRun returns the watermark for the vendor; ok is false
	// when the vendor has never completed a run.
	GetLastRun(ctx context.Context, manufacturer domain.Manufacturer) (lastRun time.Time, ok bool, err error)

	SetLastRun(ctx context.Context, manufacturer domain.Manufacturer, lastRun time.Time) error
}
