package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// MemoryImagesRepo is an in-memory ImagesRepository for tests and
// DB-less local runs.
type MemoryImagesRepo struct {
	mu     sync.RWMutex
	images []domain.Image
}

func NewMemoryImagesRepo() *MemoryImagesRepo {
	return &MemoryImagesRepo{}
}

func (r *MemoryImagesRepo) SaveImage(_ context.Context, image *domain.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = append(r.images, *image)
	return nil
}

func (r *MemoryImagesRepo) FindImageByOid(_ context.Context, oid string) (*domain.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, image := range r.images {
		if image.Oid == oid {
			copied := image
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemoryImagesRepo) FindImagesByTransactionID(_ context.Context, transactionID string) ([]domain.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var images []domain.Image
	for _, image := range r.images {
		if image.TransactionID == transactionID {
			images = append(images, image)
		}
	}
	sortImagesByMeasuredAt(images)
	return images, nil
}

func (r *MemoryImagesRepo) FindImagesByTransactionChannelTenant(_ context.Context, transactionID string, channel domain.ImageChannel, tenantID string) ([]domain.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var images []domain.Image
	for _, image := range r.images {
		if image.TransactionID == transactionID && image.Channel == channel && image.TenantID == tenantID {
			images = append(images, image)
		}
	}
	sortImagesByMeasuredAt(images)
	return images, nil
}

func (r *MemoryImagesRepo) FindTransactionIDsWithinTimeFrame(_ context.Context, tenantID string, from, to time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]bool{}
	var transactionIDs []string
	for _, image := range r.images {
		if image.TenantID != tenantID || seen[image.TransactionID] {
			continue
		}
		if image.MeasuredAt.Before(from) || image.MeasuredAt.After(to) {
			continue
		}
		seen[image.TransactionID] = true
		transactionIDs = append(transactionIDs, image.TransactionID)
	}
	sort.Strings(transactionIDs)
	return transactionIDs, nil
}

func (r *MemoryImagesRepo) FindFirstImageOfTransaction(_ context.Context, transactionID string) (*domain.Image, error) {
	images, err := r.FindImagesByTransactionID(context.Background(), transactionID)
	if err != nil || len(images) == 0 {
		return nil, err
	}
	first := images[0]
	return &first, nil
}

// Count reports the number of stored images; test helper.
func (r *MemoryImagesRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.images)
}

func sortImagesByMeasuredAt(images []domain.Image) {
	sort.Slice(images, func(i, j int) bool { return images[i].MeasuredAt.Before(images[j].MeasuredAt) })
}

// MemoryStationaryImagesRepo is an in-memory StationaryImagesRepository.
type MemoryStationaryImagesRepo struct {
	mu     sync.RWMutex
	images []domain.StationaryImage
}

func NewMemoryStationaryImagesRepo() *MemoryStationaryImagesRepo {
	return &MemoryStationaryImagesRepo{}
}

func (r *MemoryStationaryImagesRepo) SaveStationaryImage(_ context.Context, image *domain.StationaryImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = append(r.images, *image)
	return nil
}

func (r *MemoryStationaryImagesRepo) FindStationaryImageByOid(_ context.Context, oid string) (*domain.StationaryImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, image := range r.images {
		if image.Oid == oid {
			copied := image
			return &copied, nil
		}
	}
	return nil, nil
}
