// Package fiware implements the integration with the FIWARE context
// broker: the attribute wire model, entity documents, wire-format
// validation and the HTTP clients for entity upserts and subscriptions.
package fiware

import (
	"encoding/json"
	"time"
)

// Fiware attribute type keys.
const (
	TypeText     = "Text"
	TypeNumber   = "Number"
	TypeDateTime = "DateTime"
	TypeGeoJSON  = "geo:json"
)

// Attribute is a typed value in the broker's attribute wire format
// {"type": <attrType>, "value": <v>}.
type Attribute interface {
	json.Marshaler
}

type wireAttribute struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// TextAttribute wraps a string value.
type TextAttribute struct {
	Value string
}

func (a TextAttribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireAttribute{Type: TypeText, Value: a.Value})
}

// NumberAttribute wraps a numeric value.
type NumberAttribute struct {
	Value float64
}

func (a NumberAttribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireAttribute{Type: TypeNumber, Value: a.Value})
}

// DateTimeAttribute wraps an instant, serialized as RFC3339 UTC.
type DateTimeAttribute struct {
	Value time.Time
}

func (a DateTimeAttribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireAttribute{Type: TypeDateTime, Value: a.Value.UTC().Format(time.RFC3339)})
}

// EmptyAttribute serializes as an empty object.
type EmptyAttribute struct{}

func (a EmptyAttribute) MarshalJSON() ([]byte, error) {
	return []byte("{}"), nil
}

// LocationAttribute is a GeoJSON point attribute. The pair (0, 0) is
// the vendor sentinel for an unknown position and serializes as an
// empty object instead of a point.
type LocationAttribute struct {
	Latitude  float64
	Longitude float64
}

func (a LocationAttribute) MarshalJSON() ([]byte, error) {
	if a.Latitude == 0 && a.Longitude == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(wireAttribute{
		Type: TypeGeoJSON,
		Value: map[string]any{
			"type": "Point",
			// GeoJSON coordinate order is [longitude, latitude]
			"coordinates": []float64{a.Longitude, a.Latitude},
		},
	})
}
