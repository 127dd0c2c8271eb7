package vendors

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/apierror"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/credentials"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imports"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/measurement"
)

// SensoterraReading is one depth-specific soil moisture sample.
type SensoterraReading struct {
	Depth        float64   `json:"depth"`
	SoilMoisture float64   `json:"soil_moisture"`
	Timestamp    time.Time `json:"timestamp"`
}

// SensoterraProbe is one probe with its latest readings per depth.
type SensoterraProbe struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	Latitude  float64             `json:"latitude"`
	Longitude float64             `json:"longitude"`
	Status    []SensoterraReading `json:"status"`
}

type sensoterraAuthResponse struct {
	APIKey string `json:"api_key"`
}

// SensoterraClient talks to the Sensoterra monitoring API. API keys
// expire server-side, so every call obtains one through the shared
// credential cache instead of logging in per request.
type SensoterraClient struct {
	httpClient  *resty.Client
	credentials *credentials.Cache
	email       string
	password    string
	logger      *zap.Logger
}

func NewSensoterraClient(baseURL, email, password string, cache *credentials.Cache, logger *zap.Logger) *SensoterraClient {
	return &SensoterraClient{
		httpClient:  resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
		credentials: cache,
		email:       email,
		password:    password,
		logger:      logger,
	}
}

func (c *SensoterraClient) apiKey(ctx context.Context) (string, error) {
	creds, err := c.credentials.Get(ctx, domain.ManufacturerSensoterra, c.login)
	if err != nil {
		return "", err
	}
	return creds.APIKey, nil
}

func (c *SensoterraClient) login(ctx context.Context) (credentials.Credentials, error) {
	var body sensoterraAuthResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": c.email, "password": c.password}).
		SetResult(&body).
		Post("/customer/auth")
	if err != nil {
		return credentials.Credentials{}, apierror.Wrap(apierror.CodeCredentialAcquisition, "sensoterra login request failed", err)
	}
	if !resp.IsSuccess() || body.APIKey == "" {
		return credentials.Credentials{}, apierror.New(apierror.CodeCredentialAcquisition,
			fmt.Sprintf("sensoterra login rejected with status %d", resp.StatusCode()))
	}
	return credentials.Credentials{APIKey: body.APIKey}, nil
}

// FetchProbes lists every probe of the account including its current
// depth readings.
func (c *SensoterraClient) FetchProbes(ctx context.Context) ([]SensoterraProbe, error) {
	key, err := c.apiKey(ctx)
	if err != nil {
		return nil, err
	}
	var probes []SensoterraProbe
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("api_key", key).
		SetResult(&probes).
		Get("/probe")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sensoterra probes: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("sensoterra probe query returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return probes, nil
}

// SensoterraAdapter imports Sensoterra probe readings into the context
// broker. Each depth becomes its own metric so downstream consumers
// can tell the probe's levels apart.
type SensoterraAdapter struct {
	client    *SensoterraClient
	resolver  GroupResolver
	persister EntityPersister
	logger    *zap.Logger
}

func NewSensoterraAdapter(client *SensoterraClient, resolver GroupResolver, persister EntityPersister, logger *zap.Logger) *SensoterraAdapter {
	return &SensoterraAdapter{client: client, resolver: resolver, persister: persister, logger: logger}
}

func (a *SensoterraAdapter) Manufacturer() domain.Manufacturer {
	return domain.ManufacturerSensoterra
}

func (a *SensoterraAdapter) FetchWindow(ctx context.Context, tenant domain.Tenant, from, to time.Time) ([]imports.RecordHandler, error) {
	probes, err := a.client.FetchProbes(ctx)
	if err != nil {
		return nil, err
	}
	handlers := make([]imports.RecordHandler, 0, len(probes))
	for _, probe := range probes {
		probe := probe
		handlers = append(handlers, imports.RecordHandler{
			RecordID: strconv.FormatInt(probe.ID, 10),
			Persist: func(ctx context.Context) error {
				return a.persistProbe(ctx, tenant, probe, from, to)
			},
		})
	}
	return handlers, nil
}

func (a *SensoterraAdapter) persistProbe(ctx context.Context, tenant domain.Tenant, probe SensoterraProbe, from, to time.Time) error {
	sensorID := strconv.FormatInt(probe.ID, 10)
	group, err := a.resolver.Resolve(ctx, tenant, sensorID)
	if err != nil {
		return err
	}
	for _, reading := range probe.Status {
		if reading.Timestamp.Before(from) || reading.Timestamp.After(to) {
			continue
		}
		record := measurement.Record{
			SensorID:  sensorID,
			Timestamp: reading.Timestamp,
			Latitude:  probe.Latitude,
			Longitude: probe.Longitude,
		}
		metrics := []measurement.Metric{
			{Name: sensoterraMetricName(reading.Depth), Value: measurement.Number(reading.SoilMoisture)},
		}
		for _, entity := range measurement.Build(tenant, group, domain.ManufacturerSensoterra, record, metrics) {
			if err := a.persister.Persist(ctx, tenant, entity); err != nil {
				return err
			}
		}
	}
	return nil
}

func sensoterraMetricName(depthCentimeters float64) string {
	return fmt.Sprintf("soilMoistureAtDepth%d", int(depthCentimeters))
}
