package imaging

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ImageMetadata is the positional information extracted from an image.
type ImageMetadata struct {
	Latitude   float64
	Longitude  float64
	MeasuredAt time.Time
}

// ExtractMetadata reads GPS position and capture time from the EXIF
// header. Extraction is best effort: drones without a GPS fix or
// stripped headers yield zero coordinates and the fallback time, the
// ingestion itself never fails on missing EXIF.
func ExtractMetadata(data []byte, fallback time.Time) ImageMetadata {
	meta := ImageMetadata{MeasuredAt: fallback}
	parsed, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta
	}
	if capturedAt, err := parsed.DateTime(); err == nil {
		meta.MeasuredAt = capturedAt
	}
	if lat, long, err := parsed.LatLong(); err == nil {
		meta.Latitude = lat
		meta.Longitude = long
	}
	return meta
}
