package vendors

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/imports"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/measurement"
)

// Farm21Sensor is one soil sensor with its position.
type Farm21Sensor struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Farm21SensorData is one reading of a Farm21 sensor. The sensor
// reports three soil moisture depths plus soil and air conditions.
type Farm21SensorData struct {
	MeasuredAt      time.Time `json:"measured_at"`
	SoilMoisture10  float64   `json:"soil_moisture_10"`
	SoilMoisture20  float64   `json:"soil_moisture_20"`
	SoilMoisture30  float64   `json:"soil_moisture_30"`
	SoilTemperature float64   `json:"soil_temperature"`
	AirTemperature  float64   `json:"air_temperature"`
	AirHumidity     float64   `json:"air_humidity"`
	Battery         float64   `json:"battery"`
}

// Farm21Client talks to the Farm21 REST API using a static API token.
type Farm21Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewFarm21Client(baseURL, apiToken string, logger *zap.Logger) *Farm21Client {
	return &Farm21Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetAuthToken(apiToken),
		logger: logger,
	}
}

// FetchSensors lists all sensors visible to the configured account.
func (c *Farm21Client) FetchSensors(ctx context.Context) ([]Farm21Sensor, error) {
	var sensors []Farm21Sensor
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&sensors).
		Get("/sensors")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch farm21 sensors: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("farm21 sensor query returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return sensors, nil
}

// FetchSensorData returns the readings of one sensor between start and end.
func (c *Farm21Client) FetchSensorData(ctx context.Context, sensorID int64, start, end time.Time) ([]Farm21SensorData, error) {
	var readings []Farm21SensorData
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start": start.UTC().Format(time.RFC3339),
			"end":   end.UTC().Format(time.RFC3339),
		}).
		SetResult(&readings).
		Get(fmt.Sprintf("/sensors/%d/data", sensorID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch farm21 data for sensor %d: %w", sensorID, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("farm21 data query for sensor %d returned status %d", sensorID, resp.StatusCode())
	}
	return readings, nil
}

var farm21Metrics = func(d Farm21SensorData) []measurement.Metric {
	return []measurement.Metric{
		{Name: "soilMoisture10", Value: measurement.Number(d.SoilMoisture10)},
		{Name: "soilMoisture20", Value: measurement.Number(d.SoilMoisture20)},
		{Name: "soilMoisture30", Value: measurement.Number(d.SoilMoisture30)},
		{Name: "soilTemperature", Value: measurement.Number(d.SoilTemperature)},
		{Name: "airTemperature", Value: measurement.Number(d.AirTemperature)},
		{Name: "airHumidity", Value: measurement.Number(d.AirHumidity)},
		{Name: "battery", Value: measurement.Number(d.Battery)},
	}
}

// Farm21Adapter imports Farm21 sensor readings into the context
// broker. One handler covers one sensor and all its readings in the
// window, so a broken sensor never blocks the rest of the run.
type Farm21Adapter struct {
	client    *Farm21Client
	resolver  GroupResolver
	persister EntityPersister
	logger    *zap.Logger
}

func NewFarm21Adapter(client *Farm21Client, resolver GroupResolver, persister EntityPersister, logger *zap.Logger) *Farm21Adapter {
	return &Farm21Adapter{client: client, resolver: resolver, persister: persister, logger: logger}
}

func (a *Farm21Adapter) Manufacturer() domain.Manufacturer {
	return domain.ManufacturerFarm21
}

func (a *Farm21Adapter) FetchWindow(ctx context.Context, tenant domain.Tenant, from, to time.Time) ([]imports.RecordHandler, error) {
	sensors, err := a.client.FetchSensors(ctx)
	if err != nil {
		return nil, err
	}
	handlers := make([]imports.RecordHandler, 0, len(sensors))
	for _, sensor := range sensors {
		sensor := sensor
		handlers = append(handlers, imports.RecordHandler{
			RecordID: strconv.FormatInt(sensor.ID, 10),
			Persist: func(ctx context.Context) error {
				return a.persistSensor(ctx, tenant, sensor, from, to)
			},
		})
	}
	return handlers, nil
}

func (a *Farm21Adapter) persistSensor(ctx context.Context, tenant domain.Tenant, sensor Farm21Sensor, from, to time.Time) error {
	readings, err := a.client.FetchSensorData(ctx, sensor.ID, from, to)
	if err != nil {
		return err
	}
	sensorID := strconv.FormatInt(sensor.ID, 10)
	group, err := a.resolver.Resolve(ctx, tenant, sensorID)
	if err != nil {
		return err
	}
	for _, reading := range readings {
		record := measurement.Record{
			SensorID:  sensorID,
			Timestamp: reading.MeasuredAt,
			Latitude:  sensor.Latitude,
			Longitude: sensor.Longitude,
		}
		for _, entity := range measurement.Build(tenant, group, domain.ManufacturerFarm21, record, farm21Metrics(reading)) {
			if err := a.persister.Persist(ctx, tenant, entity); err != nil {
				return err
			}
		}
	}
	return nil
}
