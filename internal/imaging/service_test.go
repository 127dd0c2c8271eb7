package imaging

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/apierror"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/fiware"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
)

var imagingTestTenant = domain.Tenant{
	TenantID:     "acme",
	Name:         "Acme Farms",
	FiwarePrefix: "urn:5gla:acme:",
}

type capturingPersister struct {
	mu       sync.Mutex
	entities []fiware.Entity
}

func (p *capturingPersister) Persist(_ context.Context, _ domain.Tenant, entity fiware.Entity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entities = append(p.entities, entity)
	return nil
}

type testHarness struct {
	service      *Service
	transactions *repository.MemoryTransactionsRepo
	images       *repository.MemoryImagesRepo
	stationary   *repository.MemoryStationaryImagesRepo
	persister    *capturingPersister
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		transactions: repository.NewMemoryTransactionsRepo(),
		images:       repository.NewMemoryImagesRepo(),
		stationary:   repository.NewMemoryStationaryImagesRepo(),
		persister:    &capturingPersister{},
	}
	h.service = NewService(
		h.transactions,
		h.images,
		h.stationary,
		NewFilesystemStorage(t.TempDir(), zap.NewNop()),
		h.persister,
		zap.NewNop(),
	)
	h.service.now = func() time.Time {
		return time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)
	}
	return h
}

func testPayload() string {
	// No EXIF header, so ingestion falls back to zero coordinates and
	// the server receive time.
	return base64.StdEncoding.EncodeToString([]byte("not-a-real-jpeg"))
}

func submission(transactionID string, channel domain.ImageChannel) ImageSubmission {
	return ImageSubmission{
		TransactionID: transactionID,
		CameraID:      "drone-1",
		GroupID:       "field-1",
		Channel:       channel,
		Base64Image:   testPayload(),
	}
}

func TestProcessImage_CreatesTransactionLazily(t *testing.T) {
	h := newTestHarness(t)

	image, err := h.service.ProcessImage(context.Background(), imagingTestTenant, submission("tx-1", domain.ChannelRGB))
	require.NoError(t, err)
	require.NotNil(t, image)

	transaction, err := h.transactions.FindByTransactionID(context.Background(), "tx-1")
	require.NoError(t, err)
	require.NotNil(t, transaction)
	assert.False(t, transaction.Processed)
	assert.Equal(t, "acme", transaction.TenantID)

	// Missing EXIF falls back to the receive time and zero coordinates.
	assert.Equal(t, h.service.now(), image.MeasuredAt)
	assert.Zero(t, image.Latitude)
	assert.Zero(t, image.Longitude)

	require.Len(t, h.persister.entities, 1)
	assert.Equal(t, "urn:5gla:acme:"+image.Oid, h.persister.entities[0].EntityID())
	assert.Equal(t, "CameraImage", h.persister.entities[0].EntityType())
}

func TestProcessImage_SecondChannelReusesTransaction(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	_, err := h.service.ProcessImage(ctx, imagingTestTenant, submission("tx-1", domain.ChannelRGB))
	require.NoError(t, err)
	_, err = h.service.ProcessImage(ctx, imagingTestTenant, submission("tx-1", domain.ChannelNIR))
	require.NoError(t, err)

	images, err := h.service.ListImagesOfTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Len(t, images, 2)
}

func TestProcessImage_RejectedAfterProcessingWithoutWrites(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	_, err := h.service.ProcessImage(ctx, imagingTestTenant, submission("tx-1", domain.ChannelRGB))
	require.NoError(t, err)
	require.NoError(t, h.service.MarkTransactionProcessed(ctx, imagingTestTenant, "tx-1"))

	entitiesBefore := len(h.persister.entities)
	imagesBefore := h.images.Count()

	_, err = h.service.ProcessImage(ctx, imagingTestTenant, submission("tx-1", domain.ChannelNIR))
	require.Error(t, err)
	assert.True(t, apierror.HasCode(err, apierror.CodeTransactionAlreadyProcessed))

	assert.Equal(t, imagesBefore, h.images.Count())
	assert.Len(t, h.persister.entities, entitiesBefore)
}

func TestProcessImage_InvalidBase64Rejected(t *testing.T) {
	h := newTestHarness(t)

	sub := submission("tx-1", domain.ChannelRGB)
	sub.Base64Image = "%%% definitely not base64 %%%"
	_, err := h.service.ProcessImage(context.Background(), imagingTestTenant, sub)
	require.Error(t, err)
	assert.True(t, apierror.HasCode(err, apierror.CodeValidation))

	// Nothing was created for the rejected submission.
	transaction, err := h.transactions.FindByTransactionID(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Nil(t, transaction)
}

func TestMarkTransactionProcessed_UnknownTransaction(t *testing.T) {
	h := newTestHarness(t)

	err := h.service.MarkTransactionProcessed(context.Background(), imagingTestTenant, "missing")
	require.Error(t, err)
	assert.True(t, apierror.HasCode(err, apierror.CodeTransactionDoesNotExist))
}

func TestMarkTransactionProcessed_SecondCallRejected(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	_, err := h.service.ProcessImage(ctx, imagingTestTenant, submission("tx-1", domain.ChannelRGB))
	require.NoError(t, err)

	require.NoError(t, h.service.MarkTransactionProcessed(ctx, imagingTestTenant, "tx-1"))
	err = h.service.MarkTransactionProcessed(ctx, imagingTestTenant, "tx-1")
	require.Error(t, err)
	assert.True(t, apierror.HasCode(err, apierror.CodeTransactionAlreadyProcessed))
}

func TestProcessStationaryImage_NoTransactionInvolved(t *testing.T) {
	h := newTestHarness(t)

	image, err := h.service.ProcessStationaryImage(context.Background(), imagingTestTenant, StationarySubmission{
		CameraID:    "barn-cam",
		GroupID:     "field-1",
		Channel:     domain.ChannelRGB,
		Base64Image: testPayload(),
	})
	require.NoError(t, err)
	require.NotNil(t, image)

	stored, err := h.service.GetStationaryImage(context.Background(), image.Oid)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "barn-cam", stored.CameraID)

	require.Len(t, h.persister.entities, 1)
	assert.Equal(t, "StationaryCameraImage", h.persister.entities[0].EntityType())
}

func TestGetImageData_RoundTripsBlob(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	image, err := h.service.ProcessImage(ctx, imagingTestTenant, submission("tx-9", domain.ChannelThermal))
	require.NoError(t, err)

	data, err := h.service.GetImageData(ctx, image.Oid)
	require.NoError(t, err)
	assert.Equal(t, []byte("not-a-real-jpeg"), data)

	missing, err := h.service.GetImageData(ctx, "unknown-oid")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListTransactions_ReportsEarliestImageTime(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

	times := []time.Time{base.Add(30 * time.Minute), base}
	i := 0
	h.service.now = func() time.Time {
		ts := times[i%len(times)]
		i++
		return ts
	}

	_, err := h.service.ProcessImage(ctx, imagingTestTenant, submission("tx-1", domain.ChannelRGB))
	require.NoError(t, err)
	_, err = h.service.ProcessImage(ctx, imagingTestTenant, submission("tx-1", domain.ChannelNIR))
	require.NoError(t, err)

	summaries, err := h.service.ListTransactions(ctx, imagingTestTenant, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "tx-1", summaries[0].TransactionID)
	assert.Equal(t, base, summaries[0].FirstImageAt)
}

func TestConcurrentSubmissionsCreateSingleTransaction(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	channels := []domain.ImageChannel{
		domain.ChannelBlue, domain.ChannelGreen, domain.ChannelRed,
		domain.ChannelNIR, domain.ChannelRedEdge, domain.ChannelPanchro,
	}
	errs := make([]error, len(channels))
	for i, channel := range channels {
		wg.Add(1)
		go func(i int, channel domain.ImageChannel) {
			defer wg.Done()
			_, errs[i] = h.service.ProcessImage(ctx, imagingTestTenant, submission("tx-burst", channel))
		}(i, channel)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	images, err := h.service.ListImagesOfTransaction(ctx, "tx-burst")
	require.NoError(t, err)
	assert.Len(t, images, len(channels))
}
