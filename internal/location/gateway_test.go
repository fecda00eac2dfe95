package location

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidate-dashboard/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func createTestGateway(t *testing.T, serverURL string, cache Cache, sleeper *sleepRecorder) *Gateway {
	if sleeper == nil {
		sleeper = &sleepRecorder{}
	}
	cfg := GatewayConfig{
		BaseURL:     serverURL,
		APIKey:      "test-key",
		APIHost:     "geo.example.com",
		CountryCode: "IN",
		MaxResults:  10,
		Timeout:     2 * time.Second,
		MaxRetries:  3,
		BaseDelay:   time.Second,
	}
	return NewGateway(cfg, cache, logger.NewTestLogger(t), WithSleep(sleeper.sleep))
}

func namesBody(names ...string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf(`{"name":%q,"countryCode":"IN"}`, n)
	}
	return `{"data":[` + strings.Join(parts, ",") + `]}`
}

// ==========================
// Cache Behaviour Tests
// ==========================

func TestGateway_LookupCities_ServedFromCacheOnRepeat(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/v1/geo/countries/IN/regions/MH/cities", r.URL.Path)
		assert.Equal(t, "Pune", r.URL.Query().Get("namePrefix"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "geo.example.com", r.Header.Get("X-RapidAPI-Host"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, namesBody("Pune", "Pune Cantonment"))
	}))
	defer server.Close()

	g := createTestGateway(t, server.URL, NewMemoryCache(), nil)
	ctx := context.Background()

	first := g.LookupCities(ctx, "Pune", "MH")
	second := g.LookupCities(ctx, "Pune", "MH")

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, OutcomeRemote, first.Outcome)
	assert.Equal(t, OutcomeCache, second.Outcome)
	assert.Equal(t, first.Names, second.Names)
}

func TestGateway_FallbackIsNotCached(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cache := NewMemoryCache()
	g := createTestGateway(t, server.URL, cache, nil)

	g.LookupCities(context.Background(), "Bhu", "OR")
	g.LookupCities(context.Background(), "Bhu", "OR")

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, cache.Len())
}

// ==========================
// Fallback Tests
// ==========================

func TestGateway_LookupCities_FallbackToCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	g := createTestGateway(t, server.URL, nil, nil)
	res := g.LookupCities(context.Background(), "Bhu", "OR")

	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.NotEmpty(t, res.Names)
	assert.Contains(t, res.Names, "Bhubaneswar")
	for _, n := range res.Names {
		assert.Contains(t, strings.ToLower(n), "bhu")
	}
}

func TestGateway_FallbackCases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	g := createTestGateway(t, server.URL, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name           string
		run            func() Result
		validateOutput func(t *testing.T, res Result)
	}{
		{
			name: "states fall back to substring match",
			run:  func() Result { return g.LookupStates(ctx, "pradesh") },
			validateOutput: func(t *testing.T, res Result) {
				assert.Equal(t, OutcomeFallback, res.Outcome)
				assert.Len(t, res.Names, 5)
			},
		},
		{
			name: "states fallback is capped at ten",
			run:  func() Result { return g.LookupStates(ctx, "a") },
			validateOutput: func(t *testing.T, res Result) {
				assert.Equal(t, OutcomeFallback, res.Outcome)
				assert.Len(t, res.Names, 10)
			},
		},
		{
			name: "state without catalog cities yields empty",
			run:  func() Result { return g.LookupCities(ctx, "Gang", "SK") },
			validateOutput: func(t *testing.T, res Result) {
				assert.Equal(t, OutcomeEmpty, res.Outcome)
				assert.Empty(t, res.Names)
			},
		},
		{
			name: "no state code yields empty",
			run:  func() Result { return g.LookupCities(ctx, "Pune", "") },
			validateOutput: func(t *testing.T, res Result) {
				assert.Equal(t, OutcomeEmpty, res.Outcome)
				assert.NotNil(t, res.Names)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateOutput(t, tt.run())
		})
	}
}

func TestGateway_MalformedBodyFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"title":"Pune"}]}`)
	}))
	defer server.Close()

	g := createTestGateway(t, server.URL, nil, nil)
	res := g.LookupCities(context.Background(), "Pun", "MH")

	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, []string{"Pune"}, res.Names)
}

// ==========================
// Local Path Tests
// ==========================

func TestGateway_LookupCities_EmptyQueryListsCatalog(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	g := createTestGateway(t, server.URL, nil, nil)
	res := g.LookupCities(context.Background(), "", "MH")

	assert.Equal(t, OutcomeLocal, res.Outcome)
	assert.Equal(t, Catalog{}.CitiesForState("Maharashtra"), res.Names)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGateway_LookupStates_EmptyQuery(t *testing.T) {
	g := createTestGateway(t, "http://127.0.0.1:1", nil, nil)
	res := g.LookupStates(context.Background(), "  ")

	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.Empty(t, res.Names)
}

func TestGateway_LookupStates_Remote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/geo/countries/IN/regions", r.URL.Path)
		fmt.Fprint(w, namesBody("Karnataka", "Karnataka"))
	}))
	defer server.Close()

	g := createTestGateway(t, server.URL, nil, nil)
	res := g.LookupStates(context.Background(), "Kar")

	assert.Equal(t, OutcomeRemote, res.Outcome)
	assert.Equal(t, []string{"Karnataka", "Karnataka"}, res.Names)
}

func TestGateway_LookupCities_NoStateUsesCountrySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/geo/cities", r.URL.Path)
		assert.Equal(t, "IN", r.URL.Query().Get("countryIds"))
		fmt.Fprint(w, namesBody("Chennai"))
	}))
	defer server.Close()

	g := createTestGateway(t, server.URL, nil, nil)
	res := g.LookupCities(context.Background(), "Chen", "")

	assert.Equal(t, OutcomeRemote, res.Outcome)
	assert.Equal(t, []string{"Chennai"}, res.Names)
}

func TestGateway_RemoteResultsAreCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		names := make([]string, 15)
		for i := range names {
			names[i] = fmt.Sprintf("City %d", i)
		}
		fmt.Fprint(w, namesBody(names...))
	}))
	defer server.Close()

	g := createTestGateway(t, server.URL, nil, nil)
	res := g.LookupCities(context.Background(), "City", "KA")

	assert.Len(t, res.Names, 10)
}

// ==========================
// Retry Tests
// ==========================

func TestGateway_RetriesOnRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, namesBody("Pune"))
	}))
	defer server.Close()

	sleeper := &sleepRecorder{}
	g := createTestGateway(t, server.URL, nil, sleeper)
	res := g.LookupCities(context.Background(), "Pune", "MH")

	assert.Equal(t, OutcomeRemote, res.Outcome)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.recorded())
}

func TestGateway_RateLimitExhaustedFallsBack(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	sleeper := &sleepRecorder{}
	g := createTestGateway(t, server.URL, nil, sleeper)
	res := g.LookupCities(context.Background(), "Pu", "MH")

	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Contains(t, res.Names, "Pune")
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeper.recorded())
}

func TestGateway_OtherFailuresDoNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	sleeper := &sleepRecorder{}
	g := createTestGateway(t, server.URL, nil, sleeper)
	g.LookupStates(context.Background(), "Ma")

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, sleeper.recorded())
}

// ==========================
// Cancellation Tests
// ==========================

func TestGateway_CancelledContext(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, namesBody("Pune"))
	}))
	defer server.Close()

	g := createTestGateway(t, server.URL, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := g.LookupCities(ctx, "Pune", "MH")
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Empty(t, res.Names)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGateway_CancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := GatewayConfig{BaseURL: server.URL, MaxRetries: 3, BaseDelay: time.Second, Timeout: time.Second}
	g := NewGateway(cfg, nil, logger.NewTestLogger(t), WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	res := g.LookupStates(ctx, "Ma")
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Empty(t, res.Names)
}

// ==========================
// City Validity Tests
// ==========================

func TestGateway_IsValidCity(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		city     string
		state    string
		expected bool
		cached   bool
	}{
		{"remote exact match", http.StatusOK, namesBody("Pune", "Pune Cantonment"), "pune", "Maharashtra", true, true},
		{"remote prefix only", http.StatusOK, namesBody("Pune Cantonment"), "Pune", "Maharashtra", false, true},
		{"remote down, catalog knows city", http.StatusInternalServerError, "", "Nagpur", "Maharashtra", true, false},
		{"remote down, catalog rejects city", http.StatusInternalServerError, "", "Atlantis", "Maharashtra", false, false},
		{"remote down, no catalog for state", http.StatusInternalServerError, "", "Gangtok", "Sikkim", false, false},
		{"empty city", http.StatusOK, namesBody("Pune"), "", "Maharashtra", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			cache := NewMemoryCache()
			g := createTestGateway(t, server.URL, cache, nil)

			assert.Equal(t, tt.expected, g.IsValidCity(context.Background(), tt.city, tt.state))
			if tt.cached {
				assert.Equal(t, 1, cache.Len())
			} else {
				assert.Equal(t, 0, cache.Len())
			}
		})
	}
}

func TestGateway_IsValidCity_UsesCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, namesBody("Pune"))
	}))
	defer server.Close()

	g := createTestGateway(t, server.URL, NewMemoryCache(), nil)
	require.True(t, g.IsValidCity(context.Background(), "Pune", "Maharashtra"))
	require.True(t, g.IsValidCity(context.Background(), "Pune", "Maharashtra"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGateway_RedisBackedCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, namesBody("Pune"))
	}))
	defer server.Close()

	client, mr := setupRedis(t)
	cache := NewRedisCache(client, time.Hour)

	first := createTestGateway(t, server.URL, cache, nil)
	second := createTestGateway(t, server.URL, cache, nil)

	first.LookupCities(context.Background(), "Pune", "MH")
	res := second.LookupCities(context.Background(), "Pune", "MH")

	assert.Equal(t, OutcomeCache, res.Outcome)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, mr.Exists("geo:cities:pune|MH"))
}

func TestGateway_BrokenCacheIsAMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, namesBody("Pune"))
	}))
	defer server.Close()

	client, mr := setupRedis(t)
	mr.Close()

	g := createTestGateway(t, server.URL, NewRedisCache(client, 0), nil)
	res := g.LookupCities(context.Background(), "Pune", "MH")

	assert.Equal(t, OutcomeRemote, res.Outcome)
	assert.Equal(t, []string{"Pune"}, res.Names)
}
