// Package measurement turns vendor records into broker-ready
// DeviceMeasurement entities. Vendors declare their metrics as a
// table; the builder iterates it generically, so each vendor adapter
// is a data declaration instead of repeated construction blocks.
package measurement

import (
	"time"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/fiware"
)

// Metric is one entry of a vendor's metric table: a stable metric name
// and the extractor producing its value attribute. Every configured
// metric always yields a measurement; absent upstream values are the
// extractor's explicit decision, never a silent omission.
type Metric struct {
	Name  string
	Value func() fiware.Attribute
}

// Record carries the per-record fields shared by every measurement
// built from one vendor record.
type Record struct {
	SensorID  string
	Timestamp time.Time
	Latitude  float64
	Longitude float64
}

// Build emits one DeviceMeasurement per metric table entry. All
// measurements share the record's device id, timestamp and location
// and differ only in metric name and value.
func Build(tenant domain.Tenant, group *domain.Group, manufacturer domain.Manufacturer, record Record, metrics []Metric) []fiware.DeviceMeasurement {
	measurements := make([]fiware.DeviceMeasurement, 0, len(metrics))
	for _, metric := range metrics {
		measurements = append(measurements, fiware.DeviceMeasurement{
			ID:          tenant.FiwarePrefix + record.SensorID,
			Type:        manufacturer.EntityType(),
			Group:       fiware.TextAttribute{Value: group.GroupID},
			Name:        fiware.TextAttribute{Value: metric.Name},
			Value:       metric.Value(),
			DateCreated: fiware.DateTimeAttribute{Value: record.Timestamp},
			Latitude:    record.Latitude,
			Longitude:   record.Longitude,
		})
	}
	return measurements
}

// Number is a convenience extractor for plain numeric metrics.
func Number(value float64) func() fiware.Attribute {
	return func() fiware.Attribute { return fiware.NumberAttribute{Value: value} }
}

// OptionalNumber keeps the metric present even when the upstream field
// is missing: a nil value yields an empty attribute.
func OptionalNumber(value *float64) func() fiware.Attribute {
	return func() fiware.Attribute {
		if value == nil {
			return fiware.EmptyAttribute{}
		}
		return fiware.NumberAttribute{Value: *value}
	}
}
