package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/apierror"
)

// Result is the uniform response envelope of the API.
// - status: 'success' | 'error'
// - code: machine readable error code, only set on errors
// - message: human readable error description, only set on errors
// - result: payload, only set on success
type Result[T any] struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Result  T      `json:"result,omitempty"`
}

func Ok[T any](result T) Result[T] {
	return Result[T]{Status: "success", Result: result}
}

func Fail(code, message string) Result[any] {
	return Result[any]{Status: "error", Code: code, Message: message}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain error codes onto HTTP statuses. Unknown
// errors stay opaque 500s, their details go to the log only.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	code := apierror.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case apierror.CodeValidation, apierror.CodeTransactionAlreadyProcessed:
		status = http.StatusBadRequest
	case apierror.CodeTransactionDoesNotExist:
		status = http.StatusNotFound
	case apierror.CodeFiwareIntegration, apierror.CodeCredentialAcquisition:
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed with internal error", zap.Error(err))
		writeJSON(w, status, Fail("INTERNAL_ERROR", "internal error"))
		return
	}
	writeJSON(w, status, Fail(string(code), err.Error()))
}
