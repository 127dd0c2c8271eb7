package repository

import (
	"context"
	"time"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// ImagesRepository stores ingested capture images. Images are
// immutable historical records; there is no update path.
type ImagesRepository interface {
	SaveImage(ctx context.Context, image *domain.Image) error
	FindImageByOid(ctx context.Context, oid string) (*domain.Image, error)
	FindImagesByTransactionID(ctx context.Context, transactionID string) ([]domain.Image, error)
	FindImagesByTransactionChannelTenant(ctx context.Context, transactionID string, channel domain.ImageChannel, tenantID string) ([]domain.Image, error)

	// FindTransactionIDsWithinTimeFrame lists the distinct transaction
	// ids of a tenant whose images were measured inside [from, to].
	FindTransactionIDsWithinTimeFrame(ctx context.Context, tenantID string, from, to time.Time) ([]string, error)

	// FindFirstImageOfTransaction returns the earliest image of the
	// transaction by measurement time, or nil when there is none.
	FindFirstImageOfTransaction(ctx context.Context, transactionID string) (*domain.Image, error)
}

// StationaryImagesRepository stores one-shot stationary captures.
type StationaryImagesRepository interface {
	SaveStationaryImage(ctx context.Context, image *domain.StationaryImage) error
	FindStationaryImageByOid(ctx context.Context, oid string) (*domain.StationaryImage, error)
}
