package fiware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/apierror"
	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

var testTenant = domain.Tenant{TenantID: "acme", FiwarePrefix: "urn:5gla:acme:"}

func TestEntityClient_Persist(t *testing.T) {
	var gotPath, gotService string
	var gotBody map[string]json.RawMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotService = r.Header.Get(HeaderFiwareService)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewEntityClient(server.URL, zap.NewNop())
	err := client.Persist(context.Background(), testTenant, measurementWith("urn:5gla:acme:1", "SoilScoutSensor"))

	require.NoError(t, err)
	assert.Equal(t, "/v2/op/update", gotPath)
	assert.Equal(t, "acme", gotService)
	assert.JSONEq(t, `"append"`, string(gotBody["actionType"]))
}

func TestEntityClient_PersistBrokerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"Unprocessable"}`))
	}))
	defer server.Close()

	client := NewEntityClient(server.URL, zap.NewNop())
	err := client.Persist(context.Background(), testTenant, measurementWith("urn:5gla:acme:1", "SoilScoutSensor"))

	require.Error(t, err)
	assert.True(t, apierror.HasCode(err, apierror.CodeFiwareIntegration))
	assert.Contains(t, err.Error(), "Unprocessable")
}

func TestEntityClient_PersistRejectsInvalidEntityLocally(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewEntityClient(server.URL, zap.NewNop())
	err := client.Persist(context.Background(), testTenant, measurementWith(strings.Repeat("x", MaxIDLength+1), "SoilScoutSensor"))

	require.Error(t, err)
	assert.True(t, apierror.HasCode(err, apierror.CodeValidation))
	assert.Zero(t, requests, "validation failures must never reach the broker")
}
