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

// WeenatPlot is a measurement station. Weenat aggregates the sensors
// installed on a plot, the plot is the addressable device.
type WeenatPlot struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeenatMeasurementValues holds every metric Weenat may report for one
// timestamp. Fields are pointers: a plot only carries the sensors it
// is equipped with, the rest stay absent.
type WeenatMeasurementValues struct {
	Temperature                              *float64 `json:"T"`
	RelativeHumidity                         *float64 `json:"U"`
	CumulativeRainfall                       *float64 `json:"RR"`
	WindSpeed                                *float64 `json:"FF"`
	WindGustSpeed                            *float64 `json:"FXY"`
	SoilTemperature                          *float64 `json:"T_DRY"`
	SoilTemperature15                        *float64 `json:"T_15"`
	SoilTemperature30                        *float64 `json:"T_30"`
	SoilTemperature60                        *float64 `json:"T_60"`
	SoilWaterPotential15                     *float64 `json:"WP_15"`
	SoilWaterPotential30                     *float64 `json:"WP_30"`
	SoilWaterPotential60                     *float64 `json:"WP_60"`
	DryTemperature                           *float64 `json:"T_DRY_AIR"`
	WetTemperature                           *float64 `json:"T_WET"`
	LeafWetnessDuration                      *float64 `json:"LW_DURATION"`
	LeafWetnessVoltage                       *float64 `json:"LW_V"`
	SolarIrradiance                          *float64 `json:"SSI"`
	MinimumSolarIrradiance                   *float64 `json:"SSI_MIN"`
	MaximumSolarIrradiance                   *float64 `json:"SSI_MAX"`
	PhotosyntheticallyActiveRadiation        *float64 `json:"PPFD"`
	MinimumPhotosyntheticallyActiveRadiation *float64 `json:"PPFD_MIN"`
	MaximumPhotosyntheticallyActiveRadiation *float64 `json:"PPFD_MAX"`
	DewPoint                                 *float64 `json:"T_DEW"`
	PotentialEvapotranspiration              *float64 `json:"ETP"`
}

// WeenatMeasurement is the set of values a plot reported at one instant.
type WeenatMeasurement struct {
	Timestamp time.Time               `json:"timestamp"`
	Values    WeenatMeasurementValues `json:"measures"`
}

// WeenatClient talks to the Weenat REST API using a static API token.
type WeenatClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewWeenatClient(baseURL, apiToken string, logger *zap.Logger) *WeenatClient {
	return &WeenatClient{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Authorization", "Token "+apiToken),
		logger: logger,
	}
}

// FetchPlots lists all plots visible to the configured account.
func (c *WeenatClient) FetchPlots(ctx context.Context) ([]WeenatPlot, error) {
	var plots []WeenatPlot
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&plots).
		Get("/v2/access/plots/")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weenat plots: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("weenat plot query returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return plots, nil
}

// FetchMeasurements returns the readings of one plot between start and end.
func (c *WeenatClient) FetchMeasurements(ctx context.Context, plotID int64, start, end time.Time) ([]WeenatMeasurement, error) {
	var readings []WeenatMeasurement
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start": start.UTC().Format(time.RFC3339),
			"end":   end.UTC().Format(time.RFC3339),
		}).
		SetResult(&readings).
		Get(fmt.Sprintf("/v2/access/plots/%d/measures/", plotID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weenat measurements for plot %d: %w", plotID, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("weenat measurement query for plot %d returned status %d", plotID, resp.StatusCode())
	}
	return readings, nil
}

var weenatMetrics = func(v WeenatMeasurementValues) []measurement.Metric {
	return []measurement.Metric{
		{Name: "temperature", Value: measurement.OptionalNumber(v.Temperature)},
		{Name: "relativeHumidity", Value: measurement.OptionalNumber(v.RelativeHumidity)},
		{Name: "cumulativeRainfall", Value: measurement.OptionalNumber(v.CumulativeRainfall)},
		{Name: "windSpeed", Value: measurement.OptionalNumber(v.WindSpeed)},
		{Name: "windGustSpeed", Value: measurement.OptionalNumber(v.WindGustSpeed)},
		{Name: "soilTemperature", Value: measurement.OptionalNumber(v.SoilTemperature)},
		{Name: "soilTemperature15", Value: measurement.OptionalNumber(v.SoilTemperature15)},
		{Name: "soilTemperature30", Value: measurement.OptionalNumber(v.SoilTemperature30)},
		{Name: "soilTemperature60", Value: measurement.OptionalNumber(v.SoilTemperature60)},
		{Name: "soilWaterPotential15", Value: measurement.OptionalNumber(v.SoilWaterPotential15)},
		{Name: "soilWaterPotential30", Value: measurement.OptionalNumber(v.SoilWaterPotential30)},
		{Name: "soilWaterPotential60", Value: measurement.OptionalNumber(v.SoilWaterPotential60)},
		{Name: "dryTemperature", Value: measurement.OptionalNumber(v.DryTemperature)},
		{Name: "wetTemperature", Value: measurement.OptionalNumber(v.WetTemperature)},
		{Name: "leafWetnessDuration", Value: measurement.OptionalNumber(v.LeafWetnessDuration)},
		{Name: "leafWetnessVoltage", Value: measurement.OptionalNumber(v.LeafWetnessVoltage)},
		{Name: "solarIrradiance", Value: measurement.OptionalNumber(v.SolarIrradiance)},
		{Name: "minimumSolarIrradiance", Value: measurement.OptionalNumber(v.MinimumSolarIrradiance)},
		{Name: "maximumSolarIrradiance", Value: measurement.OptionalNumber(v.MaximumSolarIrradiance)},
		{Name: "photosyntheticallyActiveRadiation", Value: measurement.OptionalNumber(v.PhotosyntheticallyActiveRadiation)},
		{Name: "minimumPhotosyntheticallyActiveRadiation", Value: measurement.OptionalNumber(v.MinimumPhotosyntheticallyActiveRadiation)},
		{Name: "maximumPhotosyntheticallyActiveRadiation", Value: measurement.OptionalNumber(v.MaximumPhotosyntheticallyActiveRadiation)},
		{Name: "dewPoint", Value: measurement.OptionalNumber(v.DewPoint)},
		{Name: "potentialEvapotranspiration", Value: measurement.OptionalNumber(v.PotentialEvapotranspiration)},
	}
}

// WeenatAdapter imports Weenat plot readings into the context broker.
// One handler covers one plot, so a broken plot never blocks the rest
// of the run.
type WeenatAdapter struct {
	client    *WeenatClient
	resolver  GroupResolver
	persister EntityPersister
	logger    *zap.Logger
}

func NewWeenatAdapter(client *WeenatClient, resolver GroupResolver, persister EntityPersister, logger *zap.Logger) *WeenatAdapter {
	return &WeenatAdapter{client: client, resolver: resolver, persister: persister, logger: logger}
}

func (a *WeenatAdapter) Manufacturer() domain.Manufacturer {
	return domain.ManufacturerWeenat
}

func (a *WeenatAdapter) FetchWindow(ctx context.Context, tenant domain.Tenant, from, to time.Time) ([]imports.RecordHandler, error) {
	plots, err := a.client.FetchPlots(ctx)
	if err != nil {
		return nil, err
	}
	handlers := make([]imports.RecordHandler, 0, len(plots))
	for _, plot := range plots {
		plot := plot
		handlers = append(handlers, imports.RecordHandler{
			RecordID: strconv.FormatInt(plot.ID, 10),
			Persist: func(ctx context.Context) error {
				return a.persistPlot(ctx, tenant, plot, from, to)
			},
		})
	}
	return handlers, nil
}

func (a *WeenatAdapter) persistPlot(ctx context.Context, tenant domain.Tenant, plot WeenatPlot, from, to time.Time) error {
	readings, err := a.client.FetchMeasurements(ctx, plot.ID, from, to)
	if err != nil {
		return err
	}
	sensorID := strconv.FormatInt(plot.ID, 10)
	group, err := a.resolver.Resolve(ctx, tenant, sensorID)
	if err != nil {
		return err
	}
	for _, reading := range readings {
		record := measurement.Record{
			SensorID:  sensorID,
			Timestamp: reading.Timestamp,
			Latitude:  plot.Latitude,
			Longitude: plot.Longitude,
		}
		for _, entity := range measurement.Build(tenant, group, domain.ManufacturerWeenat, record, weenatMetrics(reading.Values)) {
			if err := a.persister.Persist(ctx, tenant, entity); err != nil {
				return err
			}
		}
	}
	return nil
}
