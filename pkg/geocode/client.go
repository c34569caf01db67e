// Package geocode resolves place names to coordinates through a
// Nominatim-compatible search API, one outbound request at a time.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/marche-ricette/recipe-connector/internal/resilience"
)

const (
	// DefaultBaseURL is the public OpenStreetMap Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultMinInterval is the fair-use floor between two outbound requests.
	DefaultMinInterval = 3 * time.Second

	defaultUserAgent = "recipe-connector/1.0"
	defaultTimeout   = 15 * time.Second
)

// Result holds the coordinates of a resolved place.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// Valid reports whether the coordinates are inside the canonical WGS84 ranges.
func (r Result) Valid() bool {
	return r.Latitude >= -90 && r.Latitude <= 90 &&
		r.Longitude >= -180 && r.Longitude <= 180
}

// Option configures the Geocoder.
type Option func(*Geocoder)

// WithBaseURL sets the search API base URL (for testing or a private instance).
func WithBaseURL(url string) Option {
	return func(g *Geocoder) {
		if url != "" {
			g.baseURL = url
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *Geocoder) {
		g.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent identifying this client to the service.
func WithUserAgent(ua string) Option {
	return func(g *Geocoder) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// WithRegion sets the qualifier appended to every place name, e.g.
// "Marche", "Italia" turns "Fabriano" into "Fabriano, Marche, Italia".
func WithRegion(region, country string) Option {
	return func(g *Geocoder) {
		g.region = region
		g.country = country
	}
}

// WithMinInterval sets the minimum delay between the starts of two outbound
// requests. Zero disables the floor.
func WithMinInterval(d time.Duration) Option {
	return func(g *Geocoder) {
		g.limiter = newIntervalLimiter(d)
	}
}

// WithTimeout bounds each outbound request.
func WithTimeout(d time.Duration) Option {
	return func(g *Geocoder) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithBreaker stops outbound requests while b is open. Rejected lookups fail
// with resilience.ErrUpstreamUnavailable without waiting for the rate floor.
func WithBreaker(b *resilience.Breaker) Option {
	return func(g *Geocoder) {
		g.breaker = b
	}
}

// Geocoder resolves place names with a per-instance memo cache. All callers
// sharing a Geocoder share one outbound permit, so at most one request is in
// flight and request starts are at least the configured interval apart.
type Geocoder struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	region     string
	country    string
	timeout    time.Duration

	permit  *semaphore.Weighted
	limiter *rate.Limiter
	breaker *resilience.Breaker
	cache   *cache
}

// New creates a Geocoder with the given options.
func New(opts ...Option) *Geocoder {
	g := &Geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		userAgent:  defaultUserAgent,
		timeout:    defaultTimeout,
		permit:     semaphore.NewWeighted(1),
		limiter:    newIntervalLimiter(DefaultMinInterval),
		cache:      newCache(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func newIntervalLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// Resolve returns the coordinates for placeName. Cache hits return without
// waiting for the permit. Errors match resilience.ErrNotFound (no result),
// resilience.ErrInvalidData (unusable coordinates) or
// resilience.ErrUpstreamUnavailable (status or transport failure); none of
// them are cached.
func (g *Geocoder) Resolve(ctx context.Context, placeName string) (*Result, error) {
	if r, ok := g.cache.get(placeName); ok {
		zap.L().Debug("geocode cache hit", zap.String("location", placeName))
		return &r, nil
	}

	if err := g.permit.Acquire(ctx, 1); err != nil {
		return nil, eris.Wrap(err, "geocode: acquire permit")
	}
	defer g.permit.Release(1)

	// Another caller may have resolved the same place while we waited.
	if r, ok := g.cache.get(placeName); ok {
		return &r, nil
	}

	if err := g.breaker.Allow(); err != nil {
		return nil, resilience.Upstream(err, "geocode: "+placeName)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	result, err := g.search(ctx, placeName)
	// A caller that gave up says nothing about the upstream.
	if ctx.Err() == nil {
		g.breaker.Record(err)
	}
	if err != nil {
		return nil, err
	}

	g.cache.put(placeName, *result)
	return result, nil
}

// CacheSize returns the number of cached places.
func (g *Geocoder) CacheSize() int {
	return g.cache.len()
}
