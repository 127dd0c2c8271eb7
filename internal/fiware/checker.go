package fiware

import (
	"fmt"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/apierror"
)

// Broker wire-protocol limits for entity ids and types. These are a
// compatibility contract with the context broker, not tunables.
const (
	MaxIDLength   = 62
	MaxTypeLength = 62
)

// CheckEntity validates the wire-format constraints of an entity
// before it is sent to the broker. Violations are deterministic and
// locally detectable; they never depend on a remote response.
func CheckEntity(entity Entity) error {
	if len(entity.EntityID()) > MaxIDLength {
		return apierror.New(apierror.CodeValidation,
			fmt.Sprintf("entity id %q exceeds %d characters, choose a shorter prefix", entity.EntityID(), MaxIDLength))
	}
	if len(entity.EntityType()) > MaxTypeLength {
		return apierror.New(apierror.CodeValidation,
			fmt.Sprintf("entity type %q exceeds %d characters", entity.EntityType(), MaxTypeLength))
	}
	return nil
}
