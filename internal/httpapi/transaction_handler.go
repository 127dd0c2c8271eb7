package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imaging"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
)

// TransactionHandler exposes the capture transaction lifecycle.
type TransactionHandler struct {
	service *imaging.Service
	tenants repository.TenantsRepository
	logger  *zap.Logger
}

func NewTransactionHandler(service *imaging.Service, tenants repository.TenantsRepository, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{service: service, tenants: tenants, logger: logger}
}

// MarkProcessed seals a transaction after the drone operator confirmed
// all channels are uploaded.
func (h *TransactionHandler) MarkProcessed(w http.ResponseWriter, req *http.Request, transactionID string) {
	tenant, ok := resolveTenant(w, req, h.tenants, h.logger)
	if !ok {
		return
	}
	if err := h.service.MarkTransactionProcessed(req.Context(), tenant, transactionID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"transactionId": transactionID}))
}

type transactionSummaryDTO struct {
	TransactionID string    `json:"transactionId"`
	FirstImageAt  time.Time `json:"firstImageAt"`
}

// ListTransactions lists the tenant's transactions inside the time
// frame given by the from and to query parameters (RFC 3339). The
// frame defaults to the last 7 days.
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, req *http.Request) {
	tenant, ok := resolveTenant(w, req, h.tenants, h.logger)
	if !ok {
		return
	}
	to := time.Now()
	from := to.Add(-7 * 24 * time.Hour)
	if raw := req.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("VALIDATION_ERROR", "from is not a valid RFC 3339 timestamp"))
			return
		}
		from = parsed
	}
	if raw := req.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("VALIDATION_ERROR", "to is not a valid RFC 3339 timestamp"))
			return
		}
		to = parsed
	}
	summaries, err := h.service.ListTransactions(req.Context(), tenant, from, to)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	dtos := make([]transactionSummaryDTO, 0, len(summaries))
	for _, summary := range summaries {
		dtos = append(dtos, transactionSummaryDTO{
			TransactionID: summary.TransactionID,
			FirstImageAt:  summary.FirstImageAt,
		})
	}
	writeJSON(w, http.StatusOK, Ok(dtos))
}

// ListImages returns the channel images of one transaction, optionally
// narrowed to a single channel.
func (h *TransactionHandler) ListImages(w http.ResponseWriter, req *http.Request, transactionID string) {
	tenant, ok := resolveTenant(w, req, h.tenants, h.logger)
	if !ok {
		return
	}
	var (
		images []domain.Image
		err    error
	)
	if channel := req.URL.Query().Get("channel"); channel != "" {
		images, err = h.service.ListImagesByChannel(req.Context(), transactionID, domain.ImageChannel(channel), tenant.TenantID)
	} else {
		images, err = h.service.ListImagesOfTransaction(req.Context(), transactionID)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	dtos := make([]imageDTO, 0, len(images))
	for _, image := range images {
		dtos = append(dtos, toImageDTO(image))
	}
	writeJSON(w, http.StatusOK, Ok(dtos))
}
