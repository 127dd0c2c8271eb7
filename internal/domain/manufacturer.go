package domain

// Manufacturer identifies a third party sensor vendor.
type Manufacturer string

const (
	ManufacturerSoilScout  Manufacturer = "soilscout"
	ManufacturerWeenat     Manufacturer = "weenat"
	ManufacturerAgvolution Manufacturer = "agvolution"
	ManufacturerSensoterra Manufacturer = "sensoterra"
	ManufacturerFarm21     Manufacturer = "farm21"
)

// AllManufacturers lists every vendor with a scheduled import.
func AllManufacturers() []Manufacturer {
	return []Manufacturer{
		ManufacturerSoilScout,
		ManufacturerWeenat,
		ManufacturerAgvolution,
		ManufacturerSensoterra,
		ManufacturerFarm21,
	}
}

// EntityType returns the fixed broker entity type for the vendor.
func (m Manufacturer) EntityType() string {
	switch m {
	case ManufacturerSoilScout:
		return "SoilScoutSensor"
	case ManufacturerWeenat:
		return "WeenatSensor"
	case ManufacturerAgvolution:
		return "AgvolutionSensor"
	case ManufacturerSensoterra:
		return "SensoterraProbe"
	case ManufacturerFarm21:
		return "Farm21Sensor"
	default:
		return string(m)
	}
}
