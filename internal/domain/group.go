package domain

// Group is a logical grouping of devices within a tenant. The group id
// is attached to every measurement as a tag. Exactly one group per
// tenant is flagged as the default group; it is used whenever a sensor
// has no explicit group mapping.
type Group struct {
	Oid                   string
	TenantID              string
	GroupID               string
	Name                  string
	DefaultGroupForTenant bool
	SensorIDs             []string // vendor device ids explicitly mapped to this group
}
