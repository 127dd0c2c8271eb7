package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imports"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
)

// SubscriptionManager reconciles the broker-side notification
// subscriptions of one tenant.
type SubscriptionManager interface {
	Subscribe(ctx context.Context, tenant domain.Tenant, entityTypes ...string) error
	RemoveAll(ctx context.Context, tenant domain.Tenant) error
}

// ImportTrigger starts an import cycle for every vendor.
type ImportTrigger interface {
	TriggerAll(ctx context.Context)
}

// MaintenanceHandler exposes the operator endpoints: subscription
// reconciliation, manual import triggers and import run statistics.
type MaintenanceHandler struct {
	subscriptions        SubscriptionManager
	tenants              repository.TenantsRepository
	imports              ImportTrigger
	monitor              *imports.Monitor
	subscriptionsEnabled bool
	logger               *zap.Logger
}

func NewMaintenanceHandler(
	subscriptions SubscriptionManager,
	tenants repository.TenantsRepository,
	trigger ImportTrigger,
	monitor *imports.Monitor,
	subscriptionsEnabled bool,
	logger *zap.Logger,
) *MaintenanceHandler {
	return &MaintenanceHandler{
		subscriptions:        subscriptions,
		tenants:              tenants,
		imports:              trigger,
		monitor:              monitor,
		subscriptionsEnabled: subscriptionsEnabled,
		logger:               logger,
	}
}

// subscriptionEntityTypes lists every entity type the platform exports
// and downstream consumers may subscribe to.
func subscriptionEntityTypes() []string {
	types := make([]string, 0, len(domain.AllManufacturers())+2)
	for _, manufacturer := range domain.AllManufacturers() {
		types = append(types, manufacturer.EntityType())
	}
	return append(types, "CameraImage", "StationaryCameraImage")
}

// SendSubscriptions reconciles the subscriptions of every tenant. The
// endpoint is refused entirely when subscription management is
// disabled for this deployment.
func (h *MaintenanceHandler) SendSubscriptions(w http.ResponseWriter, req *http.Request) {
	if !h.subscriptionsEnabled {
		writeJSON(w, http.StatusBadRequest, Fail("SUBSCRIPTIONS_DISABLED", "subscription management is disabled"))
		return
	}
	tenants, err := h.tenants.ListTenants(req.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	for _, tenant := range tenants {
		if err := h.subscriptions.Subscribe(req.Context(), tenant, subscriptionEntityTypes()...); err != nil {
			writeError(w, h.logger, fmt.Errorf("failed to reconcile subscriptions for tenant %s: %w", tenant.TenantID, err))
			return
		}
		h.logger.Info("Reconciled subscriptions",
			zap.String("tenant_id", tenant.TenantID),
		)
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"tenants": len(tenants)}))
}

// RemoveSubscriptions drops every subscription of every tenant.
func (h *MaintenanceHandler) RemoveSubscriptions(w http.ResponseWriter, req *http.Request) {
	if !h.subscriptionsEnabled {
		writeJSON(w, http.StatusBadRequest, Fail("SUBSCRIPTIONS_DISABLED", "subscription management is disabled"))
		return
	}
	tenants, err := h.tenants.ListTenants(req.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	for _, tenant := range tenants {
		if err := h.subscriptions.RemoveAll(req.Context(), tenant); err != nil {
			writeError(w, h.logger, fmt.Errorf("failed to remove subscriptions for tenant %s: %w", tenant.TenantID, err))
			return
		}
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"tenants": len(tenants)}))
}

// RunImports triggers an asynchronous import cycle for all vendors and
// returns immediately.
func (h *MaintenanceHandler) RunImports(w http.ResponseWriter, req *http.Request) {
	h.imports.TriggerAll(context.WithoutCancel(req.Context()))
	writeJSON(w, http.StatusAccepted, Ok("import cycle triggered"))
}

type runStatsDTO struct {
	Manufacturer string             `json:"manufacturer"`
	LastRunAt    time.Time          `json:"lastRunAt"`
	Fetched      int                `json:"fetched"`
	Persisted    int                `json:"persisted"`
	Errors       int                `json:"errors"`
	DurationMS   int64              `json:"durationMs"`
	Failures     []recordFailureDTO `json:"failures"`
}

type recordFailureDTO struct {
	RecordID string `json:"recordId"`
	Message  string `json:"message"`
}

func toRunStatsDTO(stats imports.RunStats) runStatsDTO {
	failures := make([]recordFailureDTO, 0, len(stats.Failures))
	for _, failure := range stats.Failures {
		failures = append(failures, recordFailureDTO{RecordID: failure.RecordID, Message: failure.Message})
	}
	return runStatsDTO{
		Manufacturer: string(stats.Manufacturer),
		LastRunAt:    stats.LastRunAt,
		Fetched:      stats.Fetched,
		Persisted:    stats.Persisted,
		Errors:       stats.Errors,
		DurationMS:   stats.Duration.Milliseconds(),
		Failures:     failures,
	}
}

// ImportStats returns the latest run metrics of every vendor.
func (h *MaintenanceHandler) ImportStats(w http.ResponseWriter, _ *http.Request) {
	snapshot := h.monitor.Snapshot()
	stats := make([]runStatsDTO, 0, len(snapshot))
	for _, entry := range snapshot {
		stats = append(stats, toRunStatsDTO(entry))
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// ExportImportStats downloads the latest run metrics as an Excel file.
func (h *MaintenanceHandler) ExportImportStats(w http.ResponseWriter, _ *http.Request) {
	data, err := GenerateImportStatsExport(h.monitor.Snapshot())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="import-stats.xlsx"`)
	_, _ = w.Write(data)
}
