package vendors

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imports"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/measurement"
)

// AgvolutionSeriesValue is one timestamped value of a series.
type AgvolutionSeriesValue struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// AgvolutionTimeSeries is one metric stream of a device. The key names
// the metric; Agvolution does not publish a fixed catalogue, keys are
// taken as-is.
type AgvolutionTimeSeries struct {
	Key    string                  `json:"key"`
	Unit   string                  `json:"unit"`
	Values []AgvolutionSeriesValue `json:"values"`
}

// AgvolutionDeviceSeries bundles every series one device reported in
// the queried window.
type AgvolutionDeviceSeries struct {
	DeviceID  string                 `json:"device"`
	Latitude  float64                `json:"lat"`
	Longitude float64                `json:"lon"`
	Series    []AgvolutionTimeSeries `json:"timeseries"`
}

type agvolutionQueryResponse struct {
	Data struct {
		DeviceTimeseries []AgvolutionDeviceSeries `json:"deviceTimeseries"`
	} `json:"data"`
}

const agvolutionSeriesQuery = `query($from: DateTime!, $to: DateTime!) {
  deviceTimeseries(filter: {start: $from, end: $to}) {
    device lat lon
    timeseries { key unit values { time value } }
  }
}`

// AgvolutionClient queries the Agvolution GraphQL API.
type AgvolutionClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewAgvolutionClient(baseURL, apiKey string, logger *zap.Logger) *AgvolutionClient {
	return &AgvolutionClient{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("X-API-Key", apiKey),
		logger: logger,
	}
}

// FetchSeries returns the time series of every device inside the window.
func (c *AgvolutionClient) FetchSeries(ctx context.Context, from, to time.Time) ([]AgvolutionDeviceSeries, error) {
	var body agvolutionQueryResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"query": agvolutionSeriesQuery,
			"variables": map[string]string{
				"from": from.UTC().Format(time.RFC3339),
				"to":   to.UTC().Format(time.RFC3339),
			},
		}).
		SetResult(&body).
		Post("/graphql")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agvolution series: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("agvolution series query returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return body.Data.DeviceTimeseries, nil
}

// AgvolutionAdapter imports Agvolution device series into the context
// broker. Metrics are dynamic: every series key becomes a measurement
// name without a vendor-side whitelist.
type AgvolutionAdapter struct {
	client    *AgvolutionClient
	resolver  GroupResolver
	persister EntityPersister
	logger    *zap.Logger
}

func NewAgvolutionAdapter(client *AgvolutionClient, resolver GroupResolver, persister EntityPersister, logger *zap.Logger) *AgvolutionAdapter {
	return &AgvolutionAdapter{client: client, resolver: resolver, persister: persister, logger: logger}
}

func (a *AgvolutionAdapter) Manufacturer() domain.Manufacturer {
	return domain.ManufacturerAgvolution
}

func (a *AgvolutionAdapter) FetchWindow(ctx context.Context, tenant domain.Tenant, from, to time.Time) ([]imports.RecordHandler, error) {
	devices, err := a.client.FetchSeries(ctx, from, to)
	if err != nil {
		return nil, err
	}
	handlers := make([]imports.RecordHandler, 0, len(devices))
	for _, device := range devices {
		device := device
		handlers = append(handlers, imports.RecordHandler{
			RecordID: device.DeviceID,
			Persist: func(ctx context.Context) error {
				return a.persistDevice(ctx, tenant, device)
			},
		})
	}
	return handlers, nil
}

func (a *AgvolutionAdapter) persistDevice(ctx context.Context, tenant domain.Tenant, device AgvolutionDeviceSeries) error {
	group, err := a.resolver.Resolve(ctx, tenant, device.DeviceID)
	if err != nil {
		return err
	}
	for _, series := range device.Series {
		if series.Key == "" {
			a.logger.Warn("Skipping agvolution series without a key",
				zap.String("device_id", device.DeviceID),
			)
			continue
		}
		for _, value := range series.Values {
			record := measurement.Record{
				SensorID:  device.DeviceID,
				Timestamp: value.Time,
				Latitude:  device.Latitude,
				Longitude: device.Longitude,
			}
			metrics := []measurement.Metric{
				{Name: series.Key, Value: measurement.Number(value.Value)},
			}
			for _, entity := range measurement.Build(tenant, group, domain.ManufacturerAgvolution, record, metrics) {
				if err := a.persister.Persist(ctx, tenant, entity); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
