package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/fiware"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imaging"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imports"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
)

var apiTestTenant = domain.Tenant{
	TenantID:     "acme",
	Name:         "Acme Farms",
	FiwarePrefix: "urn:5gla:acme:",
}

type fakeSubscriptionManager struct {
	subscribed []string
	removed    []string
	err        error
}

func (f *fakeSubscriptionManager) Subscribe(_ context.Context, tenant domain.Tenant, _ ...string) error {
	f.subscribed = append(f.subscribed, tenant.TenantID)
	return f.err
}

func (f *fakeSubscriptionManager) RemoveAll(_ context.Context, tenant domain.Tenant) error {
	f.removed = append(f.removed, tenant.TenantID)
	return f.err
}

type fakeTrigger struct {
	calls int64
}

func (f *fakeTrigger) TriggerAll(_ context.Context) {
	atomic.AddInt64(&f.calls, 1)
}

type nopPersister struct{}

func (nopPersister) Persist(_ context.Context, _ domain.Tenant, _ fiware.Entity) error { return nil }

type apiHarness struct {
	router        *Router
	subscriptions *fakeSubscriptionManager
	trigger       *fakeTrigger
	monitor       *imports.Monitor
}

func newAPIHarness(t *testing.T, subscriptionsEnabled bool) *apiHarness {
	t.Helper()
	logger := zap.NewNop()
	tenants := repository.NewMemoryTenantsRepo(apiTestTenant)
	service := imaging.NewService(
		repository.NewMemoryTransactionsRepo(),
		repository.NewMemoryImagesRepo(),
		repository.NewMemoryStationaryImagesRepo(),
		imaging.NewFilesystemStorage(t.TempDir(), logger),
		nopPersister{},
		logger,
	)

	h := &apiHarness{
		router:        NewRouter(logger),
		subscriptions: &fakeSubscriptionManager{},
		trigger:       &fakeTrigger{},
		monitor:       imports.NewMonitor(),
	}
	h.router.RegisterMaintenanceRoutes(NewMaintenanceHandler(
		h.subscriptions, tenants, h.trigger, h.monitor, subscriptionsEnabled, logger,
	))
	h.router.RegisterImageRoutes(NewImageHandler(service, tenants, logger))
	h.router.RegisterTransactionRoutes(NewTransactionHandler(service, tenants, logger))
	return h
}

func (h *apiHarness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(HeaderTenantID, "acme")
	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)
	return recorder
}

func imagePayload() map[string]string {
	return map[string]string{
		"transactionId": "tx-1",
		"cameraId":      "drone-1",
		"groupId":       "field-1",
		"channel":       "RGB",
		"base64Image":   base64.StdEncoding.EncodeToString([]byte("payload")),
	}
}

func TestSendSubscriptions_DisabledIsRejected(t *testing.T) {
	h := newAPIHarness(t, false)

	resp := h.do(t, http.MethodPost, "/api/v1/maintenance/send-subscriptions", nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "SUBSCRIPTIONS_DISABLED")
	assert.Empty(t, h.subscriptions.subscribed)
}

func TestSendSubscriptions_ReconcilesEveryTenant(t *testing.T) {
	h := newAPIHarness(t, true)

	resp := h.do(t, http.MethodPost, "/api/v1/maintenance/send-subscriptions", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"acme"}, h.subscriptions.subscribed)
}

func TestRunImports_TriggersAsynchronously(t *testing.T) {
	h := newAPIHarness(t, true)

	resp := h.do(t, http.MethodPost, "/api/v1/maintenance/run", nil)

	assert.Equal(t, http.StatusAccepted, resp.Code)
	assert.EqualValues(t, 1, atomic.LoadInt64(&h.trigger.calls))
}

func TestImportStats_ReturnsSnapshot(t *testing.T) {
	h := newAPIHarness(t, true)
	h.monitor.BeginRun(domain.ManufacturerWeenat, time.Date(2024, 5, 14, 3, 0, 0, 0, time.UTC))
	h.monitor.LogEntitiesFetched(domain.ManufacturerWeenat, 12)

	resp := h.do(t, http.MethodGet, "/api/v1/maintenance/import-stats", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body Result[[]runStatsDTO]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Result, 1)
	assert.Equal(t, "weenat", body.Result[0].Manufacturer)
	assert.Equal(t, 12, body.Result[0].Fetched)
}

func TestExportImportStats_ReturnsWorkbook(t *testing.T) {
	h := newAPIHarness(t, true)
	h.monitor.BeginRun(domain.ManufacturerSoilScout, time.Now())

	resp := h.do(t, http.MethodGet, "/api/v1/maintenance/import-stats/export", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header().Get("Content-Type"),
	)
	assert.NotEmpty(t, resp.Body.Bytes())
}

func TestSubmitImage_CreatesImageAndTransaction(t *testing.T) {
	h := newAPIHarness(t, true)

	resp := h.do(t, http.MethodPost, "/api/v1/images", imagePayload())

	require.Equal(t, http.StatusCreated, resp.Code)
	var body Result[imageDTO]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Result.Oid)
	assert.Equal(t, "tx-1", body.Result.TransactionID)

	metadata := h.do(t, http.MethodGet, "/api/v1/images/"+body.Result.Oid, nil)
	assert.Equal(t, http.StatusOK, metadata.Code)

	data := h.do(t, http.MethodGet, "/api/v1/images/"+body.Result.Oid+"/data", nil)
	require.Equal(t, http.StatusOK, data.Code)
	assert.Equal(t, "payload", data.Body.String())
}

func TestSubmitImage_MissingTenantHeader(t *testing.T) {
	h := newAPIHarness(t, true)

	raw, err := json.Marshal(imagePayload())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", bytes.NewReader(raw))
	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "TENANT_MISSING")
}

func TestGetImage_UnknownOid(t *testing.T) {
	h := newAPIHarness(t, true)

	resp := h.do(t, http.MethodGet, "/api/v1/images/no-such-oid", nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "IMAGE_UNKNOWN")
}

func TestSubmitStationaryImage(t *testing.T) {
	h := newAPIHarness(t, true)

	resp := h.do(t, http.MethodPost, "/api/v1/images/stationary", map[string]string{
		"cameraId":    "barn-cam",
		"groupId":     "field-1",
		"channel":     "RGB",
		"base64Image": base64.StdEncoding.EncodeToString([]byte("payload")),
	})

	require.Equal(t, http.StatusCreated, resp.Code)
	var body Result[map[string]string]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	metadata := h.do(t, http.MethodGet, "/api/v1/images/stationary/"+body.Result["oid"], nil)
	assert.Equal(t, http.StatusOK, metadata.Code)
}

func TestMarkTransactionProcessed_Lifecycle(t *testing.T) {
	h := newAPIHarness(t, true)
	h.do(t, http.MethodPost, "/api/v1/images", imagePayload())

	first := h.do(t, http.MethodPost, "/api/v1/transactions/tx-1/process", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := h.do(t, http.MethodPost, "/api/v1/transactions/tx-1/process", nil)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Contains(t, second.Body.String(), "TRANSACTION_ALREADY_PROCESSED")

	rejected := h.do(t, http.MethodPost, "/api/v1/images", imagePayload())
	assert.Equal(t, http.StatusBadRequest, rejected.Code)
}

func TestMarkTransactionProcessed_Unknown(t *testing.T) {
	h := newAPIHarness(t, true)

	resp := h.do(t, http.MethodPost, "/api/v1/transactions/missing/process", nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "TRANSACTION_DOES_NOT_EXIST")
}

func TestListTransactionImages_FiltersByChannel(t *testing.T) {
	h := newAPIHarness(t, true)
	h.do(t, http.MethodPost, "/api/v1/images", imagePayload())
	nir := imagePayload()
	nir["channel"] = "NIR"
	h.do(t, http.MethodPost, "/api/v1/images", nir)

	all := h.do(t, http.MethodGet, "/api/v1/transactions/tx-1/images", nil)
	require.Equal(t, http.StatusOK, all.Code)
	var allBody Result[[]imageDTO]
	require.NoError(t, json.Unmarshal(all.Body.Bytes(), &allBody))
	assert.Len(t, allBody.Result, 2)

	filtered := h.do(t, http.MethodGet, "/api/v1/transactions/tx-1/images?channel=NIR", nil)
	require.Equal(t, http.StatusOK, filtered.Code)
	var filteredBody Result[[]imageDTO]
	require.NoError(t, json.Unmarshal(filtered.Body.Bytes(), &filteredBody))
	require.Len(t, filteredBody.Result, 1)
	assert.Equal(t, "NIR", filteredBody.Result[0].Channel)
}
