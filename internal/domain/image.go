package domain

import "time"

// ImageChannel is the camera channel an image was captured with.
type ImageChannel string

const (
	ChannelBlue     ImageChannel = "BLUE"
	ChannelGreen    ImageChannel = "GREEN"
	ChannelRed      ImageChannel = "RED"
	ChannelNIR      ImageChannel = "NIR"
	ChannelRedEdge  ImageChannel = "RED_EDGE"
	ChannelPanchro  ImageChannel = "PANCHRO"
	ChannelRGB      ImageChannel = "RGB"
	ChannelThermal  ImageChannel = "THERMAL"
	ChannelUnknown  ImageChannel = "UNKNOWN"
)

// Image is one channel of a multi-channel capture, bound to a
// transaction. Immutable after creation.
type Image struct {
	Oid           string
	TenantID      string
	GroupID       string
	CameraID      string
	TransactionID string
	Channel       ImageChannel
	Latitude      float64
	Longitude     float64
	MeasuredAt    time.Time
	Base64Image   string
}

// StationaryImage is a one-shot capture from a stationary camera.
// There is no transaction grouping for stationary cameras.
type StationaryImage struct {
	Oid         string
	TenantID    string
	GroupID     string
	CameraID    string
	Channel     ImageChannel
	Latitude    float64
	Longitude   float64
	MeasuredAt  time.Time
	Base64Image string
}
