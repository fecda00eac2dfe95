// internal/workers/location/lookup-locations/handler_test.go
package lookuplocations

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidate-dashboard/internal/backend"
	"candidate-dashboard/internal/common/errors"
	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/location"
	"candidate-dashboard/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubLookup struct {
	gotQuery string
	gotCode  string
	states   location.Result
	cities   location.Result
}

func (s *stubLookup) LookupStates(_ context.Context, query string) location.Result {
	s.gotQuery = query
	return s.states
}

func (s *stubLookup) LookupCities(_ context.Context, query, stateCode string) location.Result {
	s.gotQuery, s.gotCode = query, stateCode
	return s.cities
}

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestHandler(t *testing.T, lookup Lookup) *Handler {
	return NewHandler(createTestConfig(), lookup, nil, logger.NewTestLogger(t))
}

func createGatewayHandler(t *testing.T, handler http.HandlerFunc) *Handler {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw := location.NewGateway(location.GatewayConfig{
		BaseURL:    server.URL,
		MaxResults: 10,
		Timeout:    2 * time.Second,
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
	}, location.NewMemoryCache(), logger.NewTestLogger(t))
	return createTestHandler(t, gw)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		lookup         *stubLookup
		validateOutput func(t *testing.T, output *Output, lookup *stubLookup)
	}{
		{
			name:   "states",
			input:  &Input{Field: "states", Query: "Kar"},
			lookup: &stubLookup{states: location.Result{Names: []string{"Karnataka"}, Outcome: location.OutcomeRemote}},
			validateOutput: func(t *testing.T, output *Output, lookup *stubLookup) {
				assert.Equal(t, []string{"Karnataka"}, output.Names)
				assert.Equal(t, 1, output.Count)
				assert.Equal(t, "remote", output.Outcome)
				assert.Equal(t, "Kar", lookup.gotQuery)
			},
		},
		{
			name:   "cities by state code",
			input:  &Input{Field: "cities", Query: "Pu", StateCode: "MH"},
			lookup: &stubLookup{cities: location.Result{Names: []string{"Pune"}, Outcome: location.OutcomeCache}},
			validateOutput: func(t *testing.T, output *Output, lookup *stubLookup) {
				assert.Equal(t, []string{"Pune"}, output.Names)
				assert.Equal(t, "cache", output.Outcome)
				assert.Equal(t, "MH", lookup.gotCode)
			},
		},
		{
			name:   "cities by state name",
			input:  &Input{Field: "Cities", Query: "Cut", State: "odisha"},
			lookup: &stubLookup{cities: location.Result{Names: []string{"Cuttack"}, Outcome: location.OutcomeFallback}},
			validateOutput: func(t *testing.T, output *Output, lookup *stubLookup) {
				assert.Equal(t, "OR", lookup.gotCode)
				assert.Equal(t, "fallback", output.Outcome)
			},
		},
		{
			name:   "nil names become empty list",
			input:  &Input{Field: "states", Query: ""},
			lookup: &stubLookup{states: location.Result{Outcome: location.OutcomeEmpty}},
			validateOutput: func(t *testing.T, output *Output, _ *stubLookup) {
				assert.NotNil(t, output.Names)
				assert.Empty(t, output.Names)
				assert.Equal(t, 0, output.Count)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, tt.lookup)
			output, err := handler.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			require.NotNil(t, output)
			tt.validateOutput(t, output, tt.lookup)
		})
	}
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{"unknown field", &Input{Field: "countries", Query: "In"}},
		{"companies without directory", &Input{Field: "companies", Query: "Ac"}},
		{"empty field", &Input{Query: "Pu"}},
		{"unknown state name", &Input{Field: "cities", Query: "Pu", State: "Atlantis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, &stubLookup{})
			output, err := handler.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, output)

			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)
		})
	}
}

func TestHandler_Execute_CancelledLookupIsTimeout(t *testing.T) {
	handler := createTestHandler(t, &stubLookup{
		states: location.Result{Names: []string{}, Outcome: location.OutcomeCancelled},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.Execute(ctx, &Input{Field: "states", Query: "Ka"})
	require.Error(t, err)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)
}

// ==========================
// Gateway Integration Tests
// ==========================

func TestHandler_Execute_WithGateway(t *testing.T) {
	t.Run("remote answer", func(t *testing.T) {
		handler := createGatewayHandler(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/geo/countries/IN/regions/KA/cities", r.URL.Path)
			fmt.Fprint(w, `{"data":[{"name":"Mysuru"},{"name":"Mangaluru"}]}`)
		})

		output, err := handler.Execute(context.Background(), &Input{Field: "cities", Query: "M", State: "Karnataka"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Mysuru", "Mangaluru"}, output.Names)
		assert.Equal(t, "remote", output.Outcome)
	})

	t.Run("remote failure falls back to catalog", func(t *testing.T) {
		handler := createGatewayHandler(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		output, err := handler.Execute(context.Background(), &Input{Field: "states", Query: "Tamil"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Tamil Nadu"}, output.Names)
		assert.Equal(t, "fallback", output.Outcome)
	})
}

// ==========================
// Company Suggestion Tests
// ==========================

type stubLister []models.Company

func (s stubLister) Companies(context.Context) ([]models.Company, error) {
	return s, nil
}

func TestHandler_Execute_Companies(t *testing.T) {
	directory := backend.NewCompanyDirectory(stubLister{
		{ID: "c1", Name: "Acme Insurance"},
		{ID: "c2", Name: "Bharat Life"},
	}, logger.NewTestLogger(t))
	handler := NewHandler(createTestConfig(), &stubLookup{}, directory, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Field: "companies", Query: "acme"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Insurance"}, output.Names)
	assert.Equal(t, "remote", output.Outcome)

	output, err = handler.Execute(context.Background(), &Input{Field: "companies", Query: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, output.Names)
	assert.Equal(t, "empty", output.Outcome)
}
