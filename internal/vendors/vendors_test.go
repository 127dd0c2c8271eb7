package vendors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/credentials"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/fiware"
)

var vendorTestTenant = domain.Tenant{
	TenantID:     "acme",
	Name:         "Acme Farms",
	FiwarePrefix: "urn:5gla:acme:",
}

type staticResolver struct {
	group domain.Group
}

func (r staticResolver) Resolve(_ context.Context, _ domain.Tenant, _ string) (*domain.Group, error) {
	return &r.group, nil
}

type capturingPersister struct {
	mu       sync.Mutex
	entities []fiware.Entity
}

func (p *capturingPersister) Persist(_ context.Context, _ domain.Tenant, entity fiware.Entity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entities = append(p.entities, entity)
	return nil
}

func (p *capturingPersister) metricNames(t *testing.T) []string {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.entities))
	for _, entity := range p.entities {
		raw, err := entity.MarshalJSON()
		require.NoError(t, err)
		var doc struct {
			Name struct {
				Value string `json:"value"`
			} `json:"name"`
		}
		require.NoError(t, json.Unmarshal(raw, &doc))
		names = append(names, doc.Name.Value)
	}
	return names
}

func testResolver() staticResolver {
	return staticResolver{group: domain.Group{TenantID: "acme", GroupID: "field-1", Name: "Field 1"}}
}

func TestSoilScoutAdapter_BuildsOneMeasurementPerMetric(t *testing.T) {
	readingTime := time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login/":
			_ = json.NewEncoder(w).Encode(map[string]string{"access": "token-1"})
		case "/measurements/":
			assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(soilScoutMeasurementPage{
				Results: []SoilScoutMeasurement{{
					Device:       42,
					Timestamp:    readingTime,
					Temperature:  21.5,
					Moisture:     0.31,
					Conductivity: 0.8,
					Salinity:     0.2,
					WaterBalance: 0.6,
				}},
			})
		case "/devices/42/":
			sensor := SoilScoutSensor{ID: 42, Name: "north field"}
			sensor.Location.Latitude = 48.137
			sensor.Location.Longitude = 11.575
			_ = json.NewEncoder(w).Encode(sensor)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	persister := &capturingPersister{}
	adapter := NewSoilScoutAdapter(
		NewSoilScoutClient(server.URL, "user", "secret", zap.NewNop()),
		testResolver(), persister, zap.NewNop(),
	)

	handlers, err := adapter.FetchWindow(context.Background(), vendorTestTenant,
		readingTime.Add(-time.Hour), readingTime.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, handlers, 1)
	require.NoError(t, handlers[0].Persist(context.Background()))

	require.Len(t, persister.entities, 5)
	assert.ElementsMatch(t,
		[]string{"temperature", "moisture", "conductivity", "salinity", "waterBalance"},
		persister.metricNames(t),
	)
	for _, entity := range persister.entities {
		assert.Equal(t, "urn:5gla:acme:42", entity.EntityID())
		assert.Equal(t, "SoilScoutSensor", entity.EntityType())
	}
}

func TestSoilScoutAdapter_LoginFailureAbortsFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter := NewSoilScoutAdapter(
		NewSoilScoutClient(server.URL, "user", "wrong", zap.NewNop()),
		testResolver(), &capturingPersister{}, zap.NewNop(),
	)

	_, err := adapter.FetchWindow(context.Background(), vendorTestTenant,
		time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
}

func TestWeenatAdapter_AbsentValuesStayPresentAsEmptyAttributes(t *testing.T) {
	readingTime := time.Date(2024, 5, 14, 6, 0, 0, 0, time.UTC)
	temperature := 17.2
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		assert.Equal(t, "Token weenat-key", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v2/access/plots/":
			_ = json.NewEncoder(w).Encode([]WeenatPlot{{ID: 7, Name: "orchard", Latitude: 47.8, Longitude: 9.6}})
		case "/v2/access/plots/7/measures/":
			_ = json.NewEncoder(w).Encode([]WeenatMeasurement{{
				Timestamp: readingTime,
				Values:    WeenatMeasurementValues{Temperature: &temperature},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	persister := &capturingPersister{}
	adapter := NewWeenatAdapter(
		NewWeenatClient(server.URL, "weenat-key", zap.NewNop()),
		testResolver(), persister, zap.NewNop(),
	)

	handlers, err := adapter.FetchWindow(context.Background(), vendorTestTenant,
		readingTime.Add(-time.Hour), readingTime.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, handlers, 1)
	assert.Equal(t, "7", handlers[0].RecordID)
	require.NoError(t, handlers[0].Persist(context.Background()))

	// The full metric table is emitted even when only one sensor reported.
	require.Len(t, persister.entities, 24)

	present, absent := 0, 0
	for _, entity := range persister.entities {
		raw, err := entity.MarshalJSON()
		require.NoError(t, err)
		var doc struct {
			Name  struct{ Value string }  `json:"name"`
			Value map[string]interface{} `json:"value"`
		}
		require.NoError(t, json.Unmarshal(raw, &doc))
		if doc.Name.Value == "temperature" {
			assert.Equal(t, 17.2, doc.Value["value"])
			present++
		} else if len(doc.Value) == 0 {
			absent++
		}
	}
	assert.Equal(t, 1, present)
	assert.Equal(t, 23, absent)
}

func TestAgvolutionAdapter_DynamicSeriesKeysBecomeMetricNames(t *testing.T) {
	base := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		assert.Equal(t, "/graphql", r.URL.Path)
		assert.Equal(t, "device-key", r.Header.Get("X-API-Key"))
		var body agvolutionQueryResponse
		body.Data.DeviceTimeseries = []AgvolutionDeviceSeries{{
			DeviceID:  "agv-17",
			Latitude:  51.03,
			Longitude: 13.73,
			Series: []AgvolutionTimeSeries{
				{Key: "AIR_TEMPERATURE", Values: []AgvolutionSeriesValue{
					{Time: base, Value: 19.1},
					{Time: base.Add(10 * time.Minute), Value: 19.4},
				}},
				{Key: "SOIL_MOISTURE_30", Values: []AgvolutionSeriesValue{
					{Time: base, Value: 0.27},
				}},
				{Key: "", Values: []AgvolutionSeriesValue{{Time: base, Value: 1}}},
			},
		}}
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	persister := &capturingPersister{}
	adapter := NewAgvolutionAdapter(
		NewAgvolutionClient(server.URL, "device-key", zap.NewNop()),
		testResolver(), persister, zap.NewNop(),
	)

	handlers, err := adapter.FetchWindow(context.Background(), vendorTestTenant, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, handlers, 1)
	require.NoError(t, handlers[0].Persist(context.Background()))

	// The keyless series is skipped, the rest map one value to one entity.
	assert.ElementsMatch(t,
		[]string{"AIR_TEMPERATURE", "AIR_TEMPERATURE", "SOIL_MOISTURE_30"},
		persister.metricNames(t),
	)
	for _, entity := range persister.entities {
		assert.Equal(t, "urn:5gla:acme:agv-17", entity.EntityID())
		assert.Equal(t, "AgvolutionSensor", entity.EntityType())
	}
}

func TestFarm21Adapter_PersistsAllReadingsOfASensor(t *testing.T) {
	base := time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		assert.Equal(t, "Bearer farm21-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/sensors":
			_ = json.NewEncoder(w).Encode([]Farm21Sensor{{ID: 314, Name: "west field", Latitude: 51.96, Longitude: 7.62}})
		case "/sensors/314/data":
			assert.Equal(t, base.Add(-time.Hour).Format(time.RFC3339), r.URL.Query().Get("start"))
			assert.Equal(t, base.Add(time.Hour).Format(time.RFC3339), r.URL.Query().Get("end"))
			_ = json.NewEncoder(w).Encode([]Farm21SensorData{
				{MeasuredAt: base, SoilMoisture10: 0.21, SoilMoisture20: 0.26, SoilMoisture30: 0.3, SoilTemperature: 14.8, AirTemperature: 18.3, AirHumidity: 0.62, Battery: 3.6},
				{MeasuredAt: base.Add(15 * time.Minute), SoilMoisture10: 0.2, SoilMoisture20: 0.25, SoilMoisture30: 0.3, SoilTemperature: 14.9, AirTemperature: 18.7, AirHumidity: 0.6, Battery: 3.6},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	persister := &capturingPersister{}
	adapter := NewFarm21Adapter(
		NewFarm21Client(server.URL, "farm21-token", zap.NewNop()),
		testResolver(), persister, zap.NewNop(),
	)

	handlers, err := adapter.FetchWindow(context.Background(), vendorTestTenant, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, handlers, 1)
	assert.Equal(t, "314", handlers[0].RecordID)
	require.NoError(t, handlers[0].Persist(context.Background()))

	// Two readings, seven metrics each.
	require.Len(t, persister.entities, 14)
	for _, entity := range persister.entities {
		assert.Equal(t, "urn:5gla:acme:314", entity.EntityID())
		assert.Equal(t, "Farm21Sensor", entity.EntityType())
	}
	names := persister.metricNames(t)
	assert.Contains(t, names, "soilMoisture10")
	assert.Contains(t, names, "soilTemperature")
	assert.Contains(t, names, "battery")
}

func TestFarm21Adapter_SensorListFailureAbortsFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter := NewFarm21Adapter(
		NewFarm21Client(server.URL, "stale-token", zap.NewNop()),
		testResolver(), &capturingPersister{}, zap.NewNop(),
	)

	_, err := adapter.FetchWindow(context.Background(), vendorTestTenant,
		time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
}

func TestSensoterraAdapter_ReusesCachedAPIKeyAndFiltersWindow(t *testing.T) {
	base := time.Date(2024, 5, 14, 8, 0, 0, 0, time.UTC)
	var logins int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/customer/auth":
			atomic.AddInt64(&logins, 1)
			_ = json.NewEncoder(w).Encode(map[string]string{"api_key": "key-1"})
		case "/probe":
			assert.Equal(t, "key-1", r.Header.Get("api_key"))
			_ = json.NewEncoder(w).Encode([]SensoterraProbe{{
				ID:        9001,
				Name:      "probe",
				Latitude:  52.5,
				Longitude: 13.4,
				Status: []SensoterraReading{
					{Depth: 15, SoilMoisture: 0.22, Timestamp: base},
					{Depth: 30, SoilMoisture: 0.31, Timestamp: base},
					{Depth: 15, SoilMoisture: 0.19, Timestamp: base.Add(-48 * time.Hour)},
				},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cache := credentials.NewCache(credentials.NewMemoryStore(), time.Hour, zap.NewNop())
	persister := &capturingPersister{}
	adapter := NewSensoterraAdapter(
		NewSensoterraClient(server.URL, "farmer@example.com", "secret", cache, zap.NewNop()),
		testResolver(), persister, zap.NewNop(),
	)

	for i := 0; i < 2; i++ {
		handlers, err := adapter.FetchWindow(context.Background(), vendorTestTenant, base.Add(-time.Hour), base.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, handlers, 1)
		require.NoError(t, handlers[0].Persist(context.Background()))
	}

	assert.EqualValues(t, 1, atomic.LoadInt64(&logins))

	// The stale reading outside the window is dropped on both runs.
	require.Len(t, persister.entities, 4)
	assert.ElementsMatch(t,
		[]string{"soilMoistureAtDepth15", "soilMoistureAtDepth30", "soilMoistureAtDepth15", "soilMoistureAtDepth30"},
		persister.metricNames(t),
	)
}
