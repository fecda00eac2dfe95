package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"candidate-dashboard/internal/common/config"
	commonhttp "candidate-dashboard/internal/common/http"
	"candidate-dashboard/internal/common/logger"
	"candidate-dashboard/internal/common/metrics"
	"candidate-dashboard/internal/common/validation"
)

// Outcome tags how a lookup was answered.
type Outcome string

const (
	OutcomeRemote    Outcome = "remote"
	OutcomeCache     Outcome = "cache"
	OutcomeFallback  Outcome = "fallback"
	OutcomeLocal     Outcome = "local"
	OutcomeEmpty     Outcome = "empty"
	OutcomeCancelled Outcome = "cancelled"
)

// Result is the answer to a state or city lookup. Names may contain duplicates.
type Result struct {
	Names   []string `json:"names"`
	Outcome Outcome  `json:"outcome"`
}

func emptyResult(outcome Outcome) Result {
	return Result{Names: []string{}, Outcome: outcome}
}

var (
	errRateLimited   = errors.New("geo api rate limited")
	errRemoteFailed  = errors.New("geo api request failed")
	errMalformedBody = errors.New("geo api returned malformed body")
)

const geoResponseSchema = `{
	"type": "object",
	"required": ["data"],
	"properties": {
		"data": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"properties": {"name": {"type": "string"}}
			}
		}
	}
}`

var responseSchema = validation.MustCompile(geoResponseSchema)

type GatewayConfig struct {
	BaseURL     string
	APIKey      string
	APIHost     string
	CountryCode string
	MaxResults  int
	Timeout     time.Duration
	MaxRetries  int
	BaseDelay   time.Duration
}

// GatewayConfigFrom converts the millisecond based settings of the geo config section.
func GatewayConfigFrom(cfg config.GeoConfig) GatewayConfig {
	return GatewayConfig{
		BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:      cfg.APIKey,
		APIHost:     cfg.APIHost,
		CountryCode: cfg.CountryCode,
		MaxResults:  cfg.MaxResults,
		Timeout:     config.GetDuration(cfg.Timeout),
		MaxRetries:  cfg.MaxRetries,
		BaseDelay:   config.GetDuration(cfg.BaseDelay),
	}
}

type GatewayOption func(*Gateway)

// WithSleep replaces the backoff wait, mostly so tests do not block on real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) GatewayOption {
	return func(g *Gateway) {
		g.sleep = sleep
	}
}

// WithCatalog swaps the offline table used for fallbacks.
func WithCatalog(c Catalog) GatewayOption {
	return func(g *Gateway) {
		g.catalog = c
	}
}

// Gateway resolves state and city names against the remote geography API.
// It never returns an error: failures degrade to the offline catalog.
type Gateway struct {
	cfg     GatewayConfig
	client  *commonhttp.Client
	cache   Cache
	catalog Catalog
	logger  logger.Logger
	tracer  trace.Tracer
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewGateway(cfg GatewayConfig, cache Cache, log logger.Logger, opts ...GatewayOption) *Gateway {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = "IN"
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	g := &Gateway{
		cfg: cfg,
		client: commonhttp.NewClient(cfg.Timeout,
			commonhttp.WithHeader("X-RapidAPI-Key", cfg.APIKey),
			commonhttp.WithHeader("X-RapidAPI-Host", cfg.APIHost),
		),
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"component": "geo-gateway"}),
		tracer: otel.Tracer("candidate-dashboard/location"),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LookupStates searches state names. An empty query yields an empty result.
func (g *Gateway) LookupStates(ctx context.Context, query string) Result {
	ctx, span := g.tracer.Start(ctx, "location.LookupStates",
		trace.WithAttributes(attribute.String("geo.query", query)))
	defer span.End()

	res := g.lookupStates(ctx, query)
	g.record(span, "states", query, "", res)
	return res
}

func (g *Gateway) lookupStates(ctx context.Context, query string) Result {
	if strings.TrimSpace(query) == "" {
		return emptyResult(OutcomeEmpty)
	}
	if ctx.Err() != nil {
		return emptyResult(OutcomeCancelled)
	}

	key := statesKey(query)
	if names, ok := g.cached(ctx, key); ok {
		return Result{Names: names, Outcome: OutcomeCache}
	}

	params := url.Values{}
	params.Set("namePrefix", strings.TrimSpace(query))
	params.Set("limit", strconv.Itoa(g.cfg.MaxResults))
	endpoint := fmt.Sprintf("%s/v1/geo/countries/%s/regions?%s", g.cfg.BaseURL, g.cfg.CountryCode, params.Encode())

	names, err := g.fetchWithRetry(ctx, endpoint)
	if err == nil {
		g.store(ctx, key, names)
		return Result{Names: names, Outcome: OutcomeRemote}
	}
	if ctx.Err() != nil {
		return emptyResult(OutcomeCancelled)
	}

	g.logger.Debug("state lookup fell back to catalog", map[string]interface{}{
		"query": query,
		"error": err,
	})
	local := capNames(g.catalog.StatesMatching(query), g.cfg.MaxResults)
	if len(local) == 0 {
		return emptyResult(OutcomeEmpty)
	}
	return Result{Names: local, Outcome: OutcomeFallback}
}

// LookupCities searches city names, optionally inside one state. With an empty query and
// a state code it lists the whole offline catalog for that state without a remote call.
func (g *Gateway) LookupCities(ctx context.Context, query, stateCode string) Result {
	ctx, span := g.tracer.Start(ctx, "location.LookupCities",
		trace.WithAttributes(
			attribute.String("geo.query", query),
			attribute.String("geo.state_code", stateCode),
		))
	defer span.End()

	res := g.lookupCities(ctx, query, stateCode)
	g.record(span, "cities", query, stateCode, res)
	return res
}

func (g *Gateway) lookupCities(ctx context.Context, query, stateCode string) Result {
	stateCode = strings.ToUpper(strings.TrimSpace(stateCode))
	stateName := g.catalog.StateForCode(stateCode)

	if strings.TrimSpace(query) == "" {
		if stateCode == "" {
			return emptyResult(OutcomeEmpty)
		}
		all := g.catalog.CitiesForState(stateName)
		if len(all) == 0 {
			return emptyResult(OutcomeEmpty)
		}
		return Result{Names: all, Outcome: OutcomeLocal}
	}
	if ctx.Err() != nil {
		return emptyResult(OutcomeCancelled)
	}

	key := citiesKey(query, stateCode)
	if names, ok := g.cached(ctx, key); ok {
		return Result{Names: names, Outcome: OutcomeCache}
	}

	names, err := g.fetchWithRetry(ctx, g.citiesEndpoint(query, stateCode))
	if err == nil {
		g.store(ctx, key, names)
		return Result{Names: names, Outcome: OutcomeRemote}
	}
	if ctx.Err() != nil {
		return emptyResult(OutcomeCancelled)
	}

	g.logger.Debug("city lookup fell back to catalog", map[string]interface{}{
		"query":     query,
		"stateCode": stateCode,
		"error":     err,
	})
	if stateName == "" {
		return emptyResult(OutcomeEmpty)
	}
	local := capNames(g.catalog.CitiesMatching(stateName, query), g.cfg.MaxResults)
	if len(local) == 0 {
		return emptyResult(OutcomeEmpty)
	}
	return Result{Names: local, Outcome: OutcomeFallback}
}

// IsValidCity reports whether city belongs to stateName. A city that can be verified
// neither remotely nor against the offline catalog is rejected.
func (g *Gateway) IsValidCity(ctx context.Context, city, stateName string) bool {
	ctx, span := g.tracer.Start(ctx, "location.IsValidCity",
		trace.WithAttributes(
			attribute.String("geo.city", city),
			attribute.String("geo.state", stateName),
		))
	defer span.End()

	city = strings.TrimSpace(city)
	if city == "" || strings.TrimSpace(stateName) == "" {
		return false
	}

	key := validityKey(city, stateName)
	var valid bool
	if ok, err := g.cache.Get(ctx, key, &valid); err == nil && ok {
		metrics.LocationCacheRequests.WithLabelValues("hit").Inc()
		span.SetAttributes(attribute.Bool("geo.valid", valid), attribute.String("geo.outcome", string(OutcomeCache)))
		return valid
	}
	metrics.LocationCacheRequests.WithLabelValues("miss").Inc()

	names, err := g.fetchWithRetry(ctx, g.citiesEndpoint(city, g.catalog.CodeFor(stateName)))
	if err == nil {
		valid = containsFold(names, city)
		g.storeValidity(ctx, key, valid)
		span.SetAttributes(attribute.Bool("geo.valid", valid), attribute.String("geo.outcome", string(OutcomeRemote)))
		return valid
	}
	if ctx.Err() != nil {
		return false
	}

	local := g.catalog.CitiesForState(stateName)
	valid = containsFold(local, city)
	outcome := OutcomeFallback
	if len(local) == 0 {
		outcome = OutcomeEmpty
	}
	g.logger.Debug("city validity decided without remote answer", map[string]interface{}{
		"city":    city,
		"state":   stateName,
		"valid":   valid,
		"outcome": string(outcome),
		"error":   err,
	})
	span.SetAttributes(attribute.Bool("geo.valid", valid), attribute.String("geo.outcome", string(outcome)))
	return valid
}

func (g *Gateway) citiesEndpoint(query, stateCode string) string {
	params := url.Values{}
	params.Set("namePrefix", strings.TrimSpace(query))
	params.Set("limit", strconv.Itoa(g.cfg.MaxResults))
	if stateCode != "" {
		return fmt.Sprintf("%s/v1/geo/countries/%s/regions/%s/cities?%s",
			g.cfg.BaseURL, g.cfg.CountryCode, stateCode, params.Encode())
	}
	params.Set("countryIds", g.cfg.CountryCode)
	return fmt.Sprintf("%s/v1/geo/cities?%s", g.cfg.BaseURL, params.Encode())
}

// fetchWithRetry retries only rate limited calls, doubling the delay each time.
func (g *Gateway) fetchWithRetry(ctx context.Context, endpoint string) ([]string, error) {
	delay := g.cfg.BaseDelay
	for attempt := 0; ; attempt++ {
		names, err := g.fetchOnce(ctx, endpoint)
		if err == nil {
			return names, nil
		}
		if !errors.Is(err, errRateLimited) || attempt >= g.cfg.MaxRetries {
			return nil, err
		}

		metrics.GeoLookupRetries.Inc()
		g.logger.Debug("geo api rate limited, backing off", map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay.String(),
		})
		if err := g.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}
}

func (g *Gateway) fetchOnce(ctx context.Context, endpoint string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errRemoteFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", errRemoteFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errRemoteFailed, err)
	}
	if result := responseSchema.Validate(body); !result.Valid {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, result.GetErrorMessages())
	}

	var payload struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	names := make([]string, 0, len(payload.Data))
	for _, d := range payload.Data {
		names = append(names, d.Name)
	}
	return capNames(names, g.cfg.MaxResults), nil
}

func (g *Gateway) cached(ctx context.Context, key string) ([]string, bool) {
	var names []string
	ok, err := g.cache.Get(ctx, key, &names)
	if err != nil {
		g.logger.Warn("location cache read failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
	if err != nil || !ok {
		metrics.LocationCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.LocationCacheRequests.WithLabelValues("hit").Inc()
	return names, true
}

func (g *Gateway) store(ctx context.Context, key string, names []string) {
	if err := g.cache.Set(ctx, key, names); err != nil {
		g.logger.Warn("location cache write failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
}

func (g *Gateway) storeValidity(ctx context.Context, key string, valid bool) {
	if err := g.cache.Set(ctx, key, valid); err != nil {
		g.logger.Warn("location cache write failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
}

func (g *Gateway) record(span trace.Span, kind, query, stateCode string, res Result) {
	metrics.GeoLookups.WithLabelValues(kind, string(res.Outcome)).Inc()
	span.SetAttributes(
		attribute.String("geo.outcome", string(res.Outcome)),
		attribute.Int("geo.results", len(res.Names)),
	)
	if res.Outcome == OutcomeFallback || res.Outcome == OutcomeEmpty && query != "" {
		span.SetStatus(codes.Error, "remote lookup degraded")
	}
	g.logger.Debug("geo lookup", map[string]interface{}{
		"kind":      kind,
		"query":     query,
		"stateCode": stateCode,
		"outcome":   string(res.Outcome),
		"results":   len(res.Names),
	})
}

func containsFold(names []string, target string) bool {
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), target) {
			return true
		}
	}
	return false
}
