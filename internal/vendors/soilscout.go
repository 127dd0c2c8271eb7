package vendors

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/apierror"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imports"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/measurement"
)

// SoilScoutMeasurement is one raw soil reading from the SoilScout API.
type SoilScoutMeasurement struct {
	Device       int64     `json:"device"`
	Timestamp    time.Time `json:"timestamp"`
	Temperature  float64   `json:"temperature"`
	Moisture     float64   `json:"moisture"`
	Conductivity float64   `json:"conductivity"`
	Salinity     float64   `json:"salinity"`
	WaterBalance float64   `json:"water_balance"`
}

// SoilScoutSensor carries the device master data, notably its position.
type SoilScoutSensor struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

type soilScoutLoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type soilScoutMeasurementPage struct {
	Next    string                 `json:"next"`
	Results []SoilScoutMeasurement `json:"results"`
}

// SoilScoutClient talks to the SoilScout hydra API. Tokens are
// requested per import run, the API does not hand out long-lived keys.
type SoilScoutClient struct {
	httpClient *resty.Client
	username   string
	password   string
	logger     *zap.Logger
}

func NewSoilScoutClient(baseURL, username, password string, logger *zap.Logger) *SoilScoutClient {
	return &SoilScoutClient{
		httpClient: resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
		username:   username,
		password:   password,
		logger:     logger,
	}
}

// Login exchanges the configured username and password for a bearer token.
func (c *SoilScoutClient) Login(ctx context.Context) (string, error) {
	var body soilScoutLoginResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": c.username, "password": c.password}).
		SetResult(&body).
		Post("/auth/login/")
	if err != nil {
		return "", apierror.Wrap(apierror.CodeCredentialAcquisition, "soilscout login request failed", err)
	}
	if !resp.IsSuccess() || body.Access == "" {
		return "", apierror.New(apierror.CodeCredentialAcquisition,
			fmt.Sprintf("soilscout login rejected with status %d", resp.StatusCode()))
	}
	return body.Access, nil
}

// FetchMeasurements returns all raw readings between since and until.
func (c *SoilScoutClient) FetchMeasurements(ctx context.Context, token string, since, until time.Time) ([]SoilScoutMeasurement, error) {
	var page soilScoutMeasurementPage
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"since": since.UTC().Format(time.RFC3339),
			"until": until.UTC().Format(time.RFC3339),
		}).
		SetResult(&page).
		Get("/measurements/")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch soilscout measurements: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("soilscout measurement query returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return page.Results, nil
}

// FetchSensor returns the master data of one device.
func (c *SoilScoutClient) FetchSensor(ctx context.Context, token string, deviceID int64) (*SoilScoutSensor, error) {
	var sensor SoilScoutSensor
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&sensor).
		Get(fmt.Sprintf("/devices/%d/", deviceID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch soilscout device %d: %w", deviceID, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("soilscout device query for %d returned status %d", deviceID, resp.StatusCode())
	}
	return &sensor, nil
}

var soilScoutMetrics = func(m SoilScoutMeasurement) []measurement.Metric {
	return []measurement.Metric{
		{Name: "temperature", Value: measurement.Number(m.Temperature)},
		{Name: "moisture", Value: measurement.Number(m.Moisture)},
		{Name: "conductivity", Value: measurement.Number(m.Conductivity)},
		{Name: "salinity", Value: measurement.Number(m.Salinity)},
		{Name: "waterBalance", Value: measurement.Number(m.WaterBalance)},
	}
}

// SoilScoutAdapter imports SoilScout readings into the context broker.
type SoilScoutAdapter struct {
	client    *SoilScoutClient
	resolver  GroupResolver
	persister EntityPersister
	logger    *zap.Logger
}

func NewSoilScoutAdapter(client *SoilScoutClient, resolver GroupResolver, persister EntityPersister, logger *zap.Logger) *SoilScoutAdapter {
	return &SoilScoutAdapter{client: client, resolver: resolver, persister: persister, logger: logger}
}

func (a *SoilScoutAdapter) Manufacturer() domain.Manufacturer {
	return domain.ManufacturerSoilScout
}

func (a *SoilScoutAdapter) FetchWindow(ctx context.Context, tenant domain.Tenant, from, to time.Time) ([]imports.RecordHandler, error) {
	token, err := a.client.Login(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := a.client.FetchMeasurements(ctx, token, from, to)
	if err != nil {
		return nil, err
	}
	handlers := make([]imports.RecordHandler, 0, len(raw))
	for _, reading := range raw {
		reading := reading
		handlers = append(handlers, imports.RecordHandler{
			RecordID: fmt.Sprintf("%d@%s", reading.Device, reading.Timestamp.UTC().Format(time.RFC3339)),
			Persist: func(ctx context.Context) error {
				return a.persistReading(ctx, tenant, token, reading)
			},
		})
	}
	return handlers, nil
}

func (a *SoilScoutAdapter) persistReading(ctx context.Context, tenant domain.Tenant, token string, reading SoilScoutMeasurement) error {
	sensorID := strconv.FormatInt(reading.Device, 10)
	sensor, err := a.client.FetchSensor(ctx, token, reading.Device)
	if err != nil {
		return err
	}
	group, err := a.resolver.Resolve(ctx, tenant, sensorID)
	if err != nil {
		return err
	}
	record := measurement.Record{
		SensorID:  sensorID,
		Timestamp: reading.Timestamp,
		Latitude:  sensor.Location.Latitude,
		Longitude: sensor.Location.Longitude,
	}
	for _, entity := range measurement.Build(tenant, group, domain.ManufacturerSoilScout, record, soilScoutMetrics(reading)) {
		if err := a.persister.Persist(ctx, tenant, entity); err != nil {
			return err
		}
	}
	return nil
}
