package fiware

import (
	"encoding/json"
)

// Entity is a broker-side record identified by (id, type) with typed
// attributes. Implementations marshal to the full entity document.
type Entity interface {
	json.Marshaler
	EntityID() string
	EntityType() string
}

// DeviceMeasurement is one normalized measurement fact destined for
// the broker. It is ephemeral: constructed, validated, dispatched and
// discarded, never stored locally.
type DeviceMeasurement struct {
	ID          string
	Type        string
	Group       Attribute
	Name        Attribute
	Value       Attribute
	DateCreated Attribute
	Latitude    float64
	Longitude   float64
}

func (m DeviceMeasurement) EntityID() string   { return m.ID }
func (m DeviceMeasurement) EntityType() string { return m.Type }

func (m DeviceMeasurement) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":          m.ID,
		"type":        m.Type,
		"group":       m.Group,
		"name":        m.Name,
		"value":       m.Value,
		"dateCreated": m.DateCreated,
		"location":    LocationAttribute{Latitude: m.Latitude, Longitude: m.Longitude},
	})
}

// CameraImage is the broker entity exported for one ingested channel
// image of a capture transaction.
type CameraImage struct {
	ID            string
	Type          string
	Group         Attribute
	CameraID      Attribute
	TransactionID Attribute
	Channel       Attribute
	ImageOid      Attribute
	DateCreated   Attribute
	Latitude      float64
	Longitude     float64
}

func (c CameraImage) EntityID() string   { return c.ID }
func (c CameraImage) EntityType() string { return c.Type }

func (c CameraImage) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":            c.ID,
		"type":          c.Type,
		"group":         c.Group,
		"cameraId":      c.CameraID,
		"transactionId": c.TransactionID,
		"channel":       c.Channel,
		"imageOid":      c.ImageOid,
		"dateCreated":   c.DateCreated,
		"location":      LocationAttribute{Latitude: c.Latitude, Longitude: c.Longitude},
	})
}

// StationaryCameraImage is the broker entity for a one-shot stationary
// capture. There is no transaction attribute.
type StationaryCameraImage struct {
	ID          string
	Type        string
	Group       Attribute
	CameraID    Attribute
	Channel     Attribute
	ImageOid    Attribute
	DateCreated Attribute
	Latitude    float64
	Longitude   float64
}

func (c StationaryCameraImage) EntityID() string   { return c.ID }
func (c StationaryCameraImage) EntityType() string { return c.Type }

func (c StationaryCameraImage) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":          c.ID,
		"type":        c.Type,
		"group":       c.Group,
		"cameraId":    c.CameraID,
		"channel":     c.Channel,
		"imageOid":    c.ImageOid,
		"dateCreated": c.DateCreated,
		"location":    LocationAttribute{Latitude: c.Latitude, Longitude: c.Longitude},
	})
}
