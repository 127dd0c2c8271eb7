package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imaging"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
)

// HeaderTenantID carries the tenant a request acts on.
const HeaderTenantID = "X-Tenant-Id"

// resolveTenant loads the tenant named in the request header. A
// missing or unknown tenant terminates the request.
func resolveTenant(w http.ResponseWriter, req *http.Request, tenants repository.TenantsRepository, logger *zap.Logger) (domain.Tenant, bool) {
	tenantID := req.Header.Get(HeaderTenantID)
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("TENANT_MISSING", "request carries no tenant header"))
		return domain.Tenant{}, false
	}
	tenant, err := tenants.GetTenant(req.Context(), tenantID)
	if err != nil {
		writeError(w, logger, err)
		return domain.Tenant{}, false
	}
	if tenant == nil {
		writeJSON(w, http.StatusNotFound, Fail("TENANT_UNKNOWN", "tenant does not exist"))
		return domain.Tenant{}, false
	}
	return *tenant, true
}

type imageSubmissionRequest struct {
	TransactionID string `json:"transactionId"`
	CameraID      string `json:"cameraId"`
	GroupID       string `json:"groupId"`
	Channel       string `json:"channel"`
	Base64Image   string `json:"base64Image"`
}

type stationarySubmissionRequest struct {
	CameraID    string `json:"cameraId"`
	GroupID     string `json:"groupId"`
	Channel     string `json:"channel"`
	Base64Image string `json:"base64Image"`
}

type imageDTO struct {
	Oid           string    `json:"oid"`
	TenantID      string    `json:"tenantId"`
	GroupID       string    `json:"groupId"`
	CameraID      string    `json:"cameraId"`
	TransactionID string    `json:"transactionId,omitempty"`
	Channel       string    `json:"channel"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	MeasuredAt    time.Time `json:"measuredAt"`
}

func toImageDTO(image domain.Image) imageDTO {
	return imageDTO{
		Oid:           image.Oid,
		TenantID:      image.TenantID,
		GroupID:       image.GroupID,
		CameraID:      image.CameraID,
		TransactionID: image.TransactionID,
		Channel:       string(image.Channel),
		Latitude:      image.Latitude,
		Longitude:     image.Longitude,
		MeasuredAt:    image.MeasuredAt,
	}
}

// ImageHandler exposes the capture ingestion endpoints.
type ImageHandler struct {
	service *imaging.Service
	tenants repository.TenantsRepository
	logger  *zap.Logger
}

func NewImageHandler(service *imaging.Service, tenants repository.TenantsRepository, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{service: service, tenants: tenants, logger: logger}
}

// SubmitImage ingests one channel image of a capture transaction.
func (h *ImageHandler) SubmitImage(w http.ResponseWriter, req *http.Request) {
	tenant, ok := resolveTenant(w, req, h.tenants, h.logger)
	if !ok {
		return
	}
	var body imageSubmissionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("VALIDATION_ERROR", "request body is not valid JSON"))
		return
	}
	image, err := h.service.ProcessImage(req.Context(), tenant, imaging.ImageSubmission{
		TransactionID: body.TransactionID,
		CameraID:      body.CameraID,
		GroupID:       body.GroupID,
		Channel:       domain.ImageChannel(body.Channel),
		Base64Image:   body.Base64Image,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(toImageDTO(*image)))
}

// SubmitStationaryImage ingests a one-shot stationary capture.
func (h *ImageHandler) SubmitStationaryImage(w http.ResponseWriter, req *http.Request) {
	tenant, ok := resolveTenant(w, req, h.tenants, h.logger)
	if !ok {
		return
	}
	var body stationarySubmissionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("VALIDATION_ERROR", "request body is not valid JSON"))
		return
	}
	image, err := h.service.ProcessStationaryImage(req.Context(), tenant, imaging.StationarySubmission{
		CameraID:    body.CameraID,
		GroupID:     body.GroupID,
		Channel:     domain.ImageChannel(body.Channel),
		Base64Image: body.Base64Image,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]string{"oid": image.Oid}))
}

// GetImage returns the metadata of one image.
func (h *ImageHandler) GetImage(w http.ResponseWriter, req *http.Request, oid string) {
	image, err := h.service.GetImage(req.Context(), oid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if image == nil {
		writeJSON(w, http.StatusNotFound, Fail("IMAGE_UNKNOWN", "image does not exist"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(toImageDTO(*image)))
}

// GetImageData streams the decoded payload of one image.
func (h *ImageHandler) GetImageData(w http.ResponseWriter, req *http.Request, oid string) {
	data, err := h.service.GetImageData(req.Context(), oid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if data == nil {
		writeJSON(w, http.StatusNotFound, Fail("IMAGE_UNKNOWN", "image does not exist"))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

// GetStationaryImage returns the metadata of one stationary capture.
func (h *ImageHandler) GetStationaryImage(w http.ResponseWriter, req *http.Request, oid string) {
	image, err := h.service.GetStationaryImage(req.Context(), oid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if image == nil {
		writeJSON(w, http.StatusNotFound, Fail("IMAGE_UNKNOWN", "image does not exist"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(imageDTO{
		Oid:        image.Oid,
		TenantID:   image.TenantID,
		GroupID:    image.GroupID,
		CameraID:   image.CameraID,
		Channel:    string(image.Channel),
		Latitude:   image.Latitude,
		Longitude:  image.Longitude,
		MeasuredAt: image.MeasuredAt,
	}))
}
