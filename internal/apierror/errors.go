// Package apierror defines the domain error taxonomy shared by all
// integration services. Every error carries a stable machine-readable
// code plus a human-readable message for operator diagnosis.
package apierror

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error code.
type Code string

const (
	// CodeValidation covers locally detected wire-format violations,
	// e.g. entity id or type exceeding the broker limit. Never caused
	// by a remote response.
	CodeValidation Code = "VALIDATION_ERROR"

	// CodeFiwareIntegration covers transport failures and non-success
	// statuses from the context broker.
	CodeFiwareIntegration Code = "FIWARE_INTEGRATION_LAYER_ERROR"

	// CodeTransactionAlreadyProcessed rejects channel submissions
	// against a finalized capture transaction.
	CodeTransactionAlreadyProcessed Code = "TRANSACTION_ALREADY_PROCESSED"

	// CodeTransactionDoesNotExist rejects finalization of an unknown
	// transaction.
	CodeTransactionDoesNotExist Code = "TRANSACTION_DOES_NOT_EXIST"

	// CodeCredentialAcquisition covers vendor login failures.
	CodeCredentialAcquisition Code = "COULD_NOT_LOGIN_AGAINST_API"
)

// Error is a domain error with a stable code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error keeping the underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the domain error code from err, or "" when err is
// not a domain error.
func CodeOf(err error) Code {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// HasCode reports whether err is a domain error with the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
