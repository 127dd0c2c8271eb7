// Package imaging ingests drone and stationary camera captures. A
// drone capture arrives channel by channel under a client-chosen
// transaction id; the transaction is created lazily on the first
// channel and sealed exactly once when the drone operator confirms
// completeness.
package imaging

import (
	"context"
	"encoding/base64"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/apierror"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/fiware"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
)

const (
	entityTypeCameraImage           = "CameraImage"
	entityTypeStationaryCameraImage = "StationaryCameraImage"

	stationaryBlobFolder = "stationary"

	transactionLockStripes = 32
)

// EntityPersister dispatches one entity to the context broker.
type EntityPersister interface {
	Persist(ctx context.Context, tenant domain.Tenant, entity fiware.Entity) error
}

// ImageSubmission is one channel image uploaded for a transaction.
type ImageSubmission struct {
	TransactionID string
	CameraID      string
	GroupID       string
	Channel       domain.ImageChannel
	Base64Image   string
}

// StationarySubmission is a one-shot stationary camera upload.
type StationarySubmission struct {
	CameraID    string
	GroupID     string
	Channel     domain.ImageChannel
	Base64Image string
}

// TransactionSummary pairs a transaction id with the measurement time
// of its earliest image.
type TransactionSummary struct {
	TransactionID string
	FirstImageAt  time.Time
}

// Service implements the capture ingestion pipeline.
type Service struct {
	transactions repository.TransactionsRepository
	images       repository.ImagesRepository
	stationary   repository.StationaryImagesRepository
	storage      BlobStorage
	persister    EntityPersister
	logger       *zap.Logger

	// Striped per-transaction locks serialize concurrent submissions
	// of the same transaction without a global bottleneck.
	locks [transactionLockStripes]sync.Mutex

	now func() time.Time
}

func NewService(
	transactions repository.TransactionsRepository,
	images repository.ImagesRepository,
	stationary repository.StationaryImagesRepository,
	storage BlobStorage,
	persister EntityPersister,
	logger *zap.Logger,
) *Service {
	return &Service{
		transactions: transactions,
		images:       images,
		stationary:   stationary,
		storage:      storage,
		persister:    persister,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Service) lockFor(transactionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(transactionID))
	return &s.locks[h.Sum32()%transactionLockStripes]
}

// ProcessImage ingests one channel image. The transaction is created
// on first contact; a processed transaction rejects the submission
// before any write happens.
func (s *Service) ProcessImage(ctx context.Context, tenant domain.Tenant, submission ImageSubmission) (*domain.Image, error) {
	if submission.TransactionID == "" {
		return nil, apierror.New(apierror.CodeValidation, "transaction id must not be empty")
	}
	data, err := base64.StdEncoding.DecodeString(submission.Base64Image)
	if err != nil {
		return nil, apierror.Wrap(apierror.CodeValidation, "image payload is not valid base64", err)
	}

	lock := s.lockFor(submission.TransactionID)
	lock.Lock()
	defer lock.Unlock()

	transaction, err := s.transactions.FindByTransactionID(ctx, submission.TransactionID)
	if err != nil {
		return nil, err
	}
	if transaction != nil && transaction.Processed {
		return nil, apierror.New(apierror.CodeTransactionAlreadyProcessed,
			"transaction is already processed and accepts no further images")
	}
	if transaction == nil {
		transaction = &domain.Transaction{
			TransactionID: submission.TransactionID,
			TenantID:      tenant.TenantID,
		}
		if err := s.transactions.Save(ctx, transaction); err != nil {
			return nil, err
		}
		s.logger.Info("Created transaction on first channel submission",
			zap.String("transaction_id", transaction.TransactionID),
			zap.String("tenant_id", tenant.TenantID),
		)
	}

	meta := ExtractMetadata(data, s.now())
	image := &domain.Image{
		Oid:           uuid.NewString(),
		TenantID:      tenant.TenantID,
		GroupID:       submission.GroupID,
		CameraID:      submission.CameraID,
		TransactionID: submission.TransactionID,
		Channel:       submission.Channel,
		Latitude:      meta.Latitude,
		Longitude:     meta.Longitude,
		MeasuredAt:    meta.MeasuredAt,
		Base64Image:   submission.Base64Image,
	}
	if err := s.storage.Store(ctx, submission.TransactionID, image.Oid, data); err != nil {
		return nil, err
	}
	if err := s.images.SaveImage(ctx, image); err != nil {
		return nil, err
	}
	if err := s.persister.Persist(ctx, tenant, s.cameraImageEntity(tenant, image)); err != nil {
		return nil, err
	}
	s.logger.Info("Ingested channel image",
		zap.String("transaction_id", image.TransactionID),
		zap.String("oid", image.Oid),
		zap.String("channel", string(image.Channel)),
	)
	return image, nil
}

// ProcessStationaryImage ingests a one-shot capture from a stationary
// camera. No transaction is involved.
func (s *Service) ProcessStationaryImage(ctx context.Context, tenant domain.Tenant, submission StationarySubmission) (*domain.StationaryImage, error) {
	data, err := base64.StdEncoding.DecodeString(submission.Base64Image)
	if err != nil {
		return nil, apierror.Wrap(apierror.CodeValidation, "image payload is not valid base64", err)
	}
	meta := ExtractMetadata(data, s.now())
	image := &domain.StationaryImage{
		Oid:         uuid.NewString(),
		TenantID:    tenant.TenantID,
		GroupID:     submission.GroupID,
		CameraID:    submission.CameraID,
		Channel:     submission.Channel,
		Latitude:    meta.Latitude,
		Longitude:   meta.Longitude,
		MeasuredAt:  meta.MeasuredAt,
		Base64Image: submission.Base64Image,
	}
	if err := s.storage.Store(ctx, stationaryBlobFolder, image.Oid, data); err != nil {
		return nil, err
	}
	if err := s.stationary.SaveStationaryImage(ctx, image); err != nil {
		return nil, err
	}
	if err := s.persister.Persist(ctx, tenant, s.stationaryImageEntity(tenant, image)); err != nil {
		return nil, err
	}
	s.logger.Info("Ingested stationary image",
		zap.String("oid", image.Oid),
		zap.String("camera_id", image.CameraID),
	)
	return image, nil
}

// MarkTransactionProcessed seals a transaction. Sealing is idempotent
// in outcome but not in status: a second call is rejected.
func (s *Service) MarkTransactionProcessed(ctx context.Context, tenant domain.Tenant, transactionID string) error {
	lock := s.lockFor(transactionID)
	lock.Lock()
	defer lock.Unlock()

	transaction, err := s.transactions.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return err
	}
	if transaction == nil {
		return apierror.New(apierror.CodeTransactionDoesNotExist, "transaction does not exist")
	}
	if transaction.Processed {
		return apierror.New(apierror.CodeTransactionAlreadyProcessed, "transaction is already processed")
	}
	transaction.MarkAsProcessed()
	if err := s.transactions.Save(ctx, transaction); err != nil {
		return err
	}
	s.logger.Info("Marked transaction as processed",
		zap.String("transaction_id", transactionID),
		zap.String("tenant_id", tenant.TenantID),
	)
	return nil
}

// GetImage returns the stored metadata of one image, nil when unknown.
func (s *Service) GetImage(ctx context.Context, oid string) (*domain.Image, error) {
	return s.images.FindImageByOid(ctx, oid)
}

// GetImageData returns the decoded payload of one image.
func (s *Service) GetImageData(ctx context.Context, oid string) ([]byte, error) {
	image, err := s.images.FindImageByOid(ctx, oid)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, nil
	}
	return s.storage.Load(ctx, image.TransactionID, oid)
}

// GetStationaryImage returns one stationary capture, nil when unknown.
func (s *Service) GetStationaryImage(ctx context.Context, oid string) (*domain.StationaryImage, error) {
	return s.stationary.FindStationaryImageByOid(ctx, oid)
}

// ListImagesOfTransaction returns every channel image of a transaction.
func (s *Service) ListImagesOfTransaction(ctx context.Context, transactionID string) ([]domain.Image, error) {
	return s.images.FindImagesByTransactionID(ctx, transactionID)
}

// ListImagesByChannel narrows a transaction's images to one channel of
// one tenant.
func (s *Service) ListImagesByChannel(ctx context.Context, transactionID string, channel domain.ImageChannel, tenantID string) ([]domain.Image, error) {
	return s.images.FindImagesByTransactionChannelTenant(ctx, transactionID, channel, tenantID)
}

// ListTransactions summarizes a tenant's transactions inside the time
// frame, each with the measurement time of its earliest image.
func (s *Service) ListTransactions(ctx context.Context, tenant domain.Tenant, from, to time.Time) ([]TransactionSummary, error) {
	ids, err := s.images.FindTransactionIDsWithinTimeFrame(ctx, tenant.TenantID, from, to)
	if err != nil {
		return nil, err
	}
	summaries := make([]TransactionSummary, 0, len(ids))
	for _, id := range ids {
		first, err := s.images.FindFirstImageOfTransaction(ctx, id)
		if err != nil {
			return nil, err
		}
		summary := TransactionSummary{TransactionID: id}
		if first != nil {
			summary.FirstImageAt = first.MeasuredAt
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Service) cameraImageEntity(tenant domain.Tenant, image *domain.Image) fiware.CameraImage {
	return fiware.CameraImage{
		ID:            tenant.FiwarePrefix + image.Oid,
		Type:          entityTypeCameraImage,
		Group:         fiware.TextAttribute{Value: image.GroupID},
		CameraID:      fiware.TextAttribute{Value: image.CameraID},
		TransactionID: fiware.TextAttribute{Value: image.TransactionID},
		Channel:       fiware.TextAttribute{Value: string(image.Channel)},
		ImageOid:      fiware.TextAttribute{Value: image.Oid},
		DateCreated:   fiware.DateTimeAttribute{Value: image.MeasuredAt},
		Latitude:      image.Latitude,
		Longitude:     image.Longitude,
	}
}

func (s *Service) stationaryImageEntity(tenant domain.Tenant, image *domain.StationaryImage) fiware.StationaryCameraImage {
	return fiware.StationaryCameraImage{
		ID:          tenant.FiwarePrefix + image.Oid,
		Type:        entityTypeStationaryCameraImage,
		Group:       fiware.TextAttribute{Value: image.GroupID},
		CameraID:    fiware.TextAttribute{Value: image.CameraID},
		Channel:     fiware.TextAttribute{Value: string(image.Channel)},
		ImageOid:    fiware.TextAttribute{Value: image.Oid},
		DateCreated: fiware.DateTimeAttribute{Value: image.MeasuredAt},
		Latitude:    image.Latitude,
		Longitude:   image.Longitude,
	}
}
