// Package consumer ingests camera uploads arriving over MQTT. Field
// gateways publish captures to per-tenant topics when uploading over
// HTTP is not practical.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imaging"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/repository"
)

// Topic layout: 5gla/<tenant>/images and 5gla/<tenant>/images/stationary.
const (
	topicPrefix           = "5gla/"
	topicSuffixImages     = "/images"
	topicSuffixStationary = "/images/stationary"

	// SubscriptionPattern subscribes to every tenant's camera topics.
	SubscriptionPattern = "5gla/+/images/#"
)

type cameraUploadMessage struct {
	TransactionID string `json:"transactionId"`
	CameraID      string `json:"cameraId"`
	GroupID       string `json:"groupId"`
	Channel       string `json:"channel"`
	Base64Image   string `json:"base64Image"`
}

// CameraConsumer feeds MQTT camera uploads into the ingestion pipeline.
type CameraConsumer struct {
	service *imaging.Service
	tenants repository.TenantsRepository
	logger  *zap.Logger
}

func NewCameraConsumer(service *imaging.Service, tenants repository.TenantsRepository, logger *zap.Logger) *CameraConsumer {
	return &CameraConsumer{service: service, tenants: tenants, logger: logger}
}

// HandleMessage processes one camera upload. The tenant is taken from
// the topic, the capture parameters from the JSON payload.
func (c *CameraConsumer) HandleMessage(topic string, payload []byte) error {
	tenantID, stationary, err := parseTopic(topic)
	if err != nil {
		return err
	}
	tenant, err := c.tenants.GetTenant(context.Background(), tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return fmt.Errorf("camera upload for unknown tenant %s", tenantID)
	}

	var message cameraUploadMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		return fmt.Errorf("camera upload payload is not valid JSON: %w", err)
	}

	ctx := context.Background()
	if stationary {
		image, err := c.service.ProcessStationaryImage(ctx, *tenant, imaging.StationarySubmission{
			CameraID:    message.CameraID,
			GroupID:     message.GroupID,
			Channel:     domain.ImageChannel(message.Channel),
			Base64Image: message.Base64Image,
		})
		if err != nil {
			return err
		}
		c.logger.Info("Ingested stationary camera upload from MQTT",
			zap.String("tenant_id", tenantID),
			zap.String("oid", image.Oid),
		)
		return nil
	}

	image, err := c.service.ProcessImage(ctx, *tenant, imaging.ImageSubmission{
		TransactionID: message.TransactionID,
		CameraID:      message.CameraID,
		GroupID:       message.GroupID,
		Channel:       domain.ImageChannel(message.Channel),
		Base64Image:   message.Base64Image,
	})
	if err != nil {
		return err
	}
	c.logger.Info("Ingested camera upload from MQTT",
		zap.String("tenant_id", tenantID),
		zap.String("transaction_id", image.TransactionID),
		zap.String("oid", image.Oid),
	)
	return nil
}

func parseTopic(topic string) (tenantID string, stationary bool, err error) {
	if !strings.HasPrefix(topic, topicPrefix) {
		return "", false, fmt.Errorf("unexpected topic %s", topic)
	}
	rest := strings.TrimPrefix(topic, topicPrefix)
	switch {
	case strings.HasSuffix(rest, topicSuffixStationary):
		tenantID = strings.TrimSuffix(rest, topicSuffixStationary)
		stationary = true
	case strings.HasSuffix(rest, topicSuffixImages):
		tenantID = strings.TrimSuffix(rest, topicSuffixImages)
	default:
		return "", false, fmt.Errorf("unexpected topic %s", topic)
	}
	if tenantID == "" || strings.Contains(tenantID, "/") {
		return "", false, fmt.Errorf("unexpected topic %s", topic)
	}
	return tenantID, stationary, nil
}
