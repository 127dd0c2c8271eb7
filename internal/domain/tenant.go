package domain

// Tenant is the isolation boundary for all integrations. Tenants are
// provisioned externally and read-only for the services.
type Tenant struct {
	TenantID     string // tenant identifier, also the Fiware-Service header value
	Name         string
	FiwarePrefix string // prefix for every entity id created for this tenant
}
