package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinicmap/geosearch/pkg/geo"
)

// Defaults for proximity search requests when the caller passes zero values.
const (
	DefaultRadiusKm    = 10.0
	DefaultTagLimit    = 50
	DefaultNearbyLimit = 20

	// DefaultRateInterval is the minimum spacing between calls to the free
	// text-search provider, per its usage policy.
	DefaultRateInterval = time.Second

	defaultBatchConcurrency = 4
)

// Client is the subsystem's entry point. It owns the cache, the rate
// limiter, and both provider clients; all of that state is created once at
// start-up and shared for the life of the process.
type Client struct {
	cache            *Cache
	nominatim        *NominatimClient
	geoapify         *GeoapifyClient
	search           *ProximitySearch
	batchConcurrency int
}

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	geoapifyKey      string
	nominatimBaseURL string
	geoapifyBaseURL  string
	userAgent        string
	rateInterval     time.Duration
	nominatimTimeout time.Duration
	geoapifyTimeout  time.Duration
	httpClient       *http.Client
	batchConcurrency int
}

// WithGeoapifyAPIKey enables the category-based places provider. Without a
// key, category searches fall back to free-text search.
func WithGeoapifyAPIKey(key string) Option {
	return func(c *clientConfig) { c.geoapifyKey = key }
}

// WithNominatimBaseURL overrides the text-search provider's base URL.
func WithNominatimBaseURL(u string) Option {
	return func(c *clientConfig) { c.nominatimBaseURL = u }
}

// WithGeoapifyBaseURL overrides the places provider's base URL.
func WithGeoapifyBaseURL(u string) Option {
	return func(c *clientConfig) { c.geoapifyBaseURL = u }
}

// WithUserAgent sets the User-Agent sent to the text-search provider.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) { c.userAgent = ua }
}

// WithRateInterval sets the minimum interval between text-search provider calls.
func WithRateInterval(d time.Duration) Option {
	return func(c *clientConfig) { c.rateInterval = d }
}

// WithTimeouts sets per-provider request timeouts. Zero keeps the defaults
// (10 s text search, 30 s category search). Ignored when WithHTTPClient is set.
func WithTimeouts(nominatim, geoapify time.Duration) Option {
	return func(c *clientConfig) {
		c.nominatimTimeout = nominatim
		c.geoapifyTimeout = geoapify
	}
}

// WithHTTPClient sets a custom HTTP client for both providers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// WithBatchConcurrency sets the max parallel lookups for BatchGeocode.
func WithBatchConcurrency(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.batchConcurrency = n
		}
	}
}

// NewClient assembles the subsystem: cache, interval limiter, both provider
// clients, and the proximity search with the category provider first when an
// API key is configured.
func NewClient(opts ...Option) *Client {
	cfg := clientConfig{
		rateInterval:     DefaultRateInterval,
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	cache := NewCache()
	limiter := NewIntervalLimiter(cfg.rateInterval)

	var nominatimOpts []NominatimOption
	if cfg.nominatimBaseURL != "" {
		nominatimOpts = append(nominatimOpts, withNominatimBase(cfg.nominatimBaseURL))
	}
	if cfg.userAgent != "" {
		nominatimOpts = append(nominatimOpts, withNominatimAgent(cfg.userAgent))
	}
	switch {
	case cfg.httpClient != nil:
		nominatimOpts = append(nominatimOpts, withNominatimHTTP(cfg.httpClient))
	case cfg.nominatimTimeout > 0:
		nominatimOpts = append(nominatimOpts, withNominatimHTTP(&http.Client{Timeout: cfg.nominatimTimeout}))
	}
	nominatim := NewNominatimClient(cache, limiter, nominatimOpts...)

	var geoapifyOpts []GeoapifyOption
	if cfg.geoapifyBaseURL != "" {
		geoapifyOpts = append(geoapifyOpts, withGeoapifyBase(cfg.geoapifyBaseURL))
	}
	switch {
	case cfg.httpClient != nil:
		geoapifyOpts = append(geoapifyOpts, withGeoapifyHTTP(cfg.httpClient))
	case cfg.geoapifyTimeout > 0:
		geoapifyOpts = append(geoapifyOpts, withGeoapifyHTTP(&http.Client{Timeout: cfg.geoapifyTimeout}))
	}
	geoapify := NewGeoapifyClient(cfg.geoapifyKey, geoapifyOpts...)

	return &Client{
		cache:            cache,
		nominatim:        nominatim,
		geoapify:         geoapify,
		search:           NewProximitySearch(geoapify, nominatim),
		batchConcurrency: cfg.batchConcurrency,
	}
}

// Geocode resolves an address to coordinates via the text-search provider,
// consulting the cache first.
func (c *Client) Geocode(ctx context.Context, addr AddressInput) (*GeocodeResult, error) {
	return c.nominatim.Geocode(ctx, addr)
}

// BatchGeocode resolves addresses in parallel with bounded concurrency.
// Individual failures do not fail the batch; failed entries come back nil.
func (c *Client) BatchGeocode(ctx context.Context, addrs []AddressInput) []*GeocodeResult {
	results := make([]*GeocodeResult, len(addrs))
	if len(addrs) == 0 {
		return results
	}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.batchConcurrency)

	for i, addr := range addrs {
		eg.Go(func() error {
			r, err := c.nominatim.Geocode(gCtx, addr)
			if err != nil {
				return nil //nolint:nilerr // individual failures don't fail the batch
			}
			results[i] = r
			return nil
		})
	}

	_ = eg.Wait()
	return results
}

// ReverseGeocode resolves coordinates to an address via the text-search provider.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*ReverseGeocodeResult, error) {
	return c.nominatim.ReverseGeocode(ctx, lat, lon)
}

// SearchPlacesByTags finds places matching the given category tags near a
// point, preferring the category provider and falling back to free-text
// search. Zero radius and limit take the package defaults.
func (c *Client) SearchPlacesByTags(ctx context.Context, lat, lon float64, categories []string, radiusKm float64, limit int) ([]PlaceSearchResult, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	if limit <= 0 {
		limit = DefaultTagLimit
	}
	return c.search.Search(ctx, PlaceSearchRequest{
		Latitude:   lat,
		Longitude:  lon,
		Categories: categories,
		RadiusKm:   radiusKm,
		Limit:      limit,
	})
}

// SearchPlacesNearby finds places matching a free-text query near a point.
// Zero radius and limit take the package defaults.
func (c *Client) SearchPlacesNearby(ctx context.Context, lat, lon float64, query string, radiusKm float64, limit int) ([]PlaceSearchResult, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}
	return c.nominatim.SearchPlaces(ctx, PlaceSearchRequest{
		Latitude:  lat,
		Longitude: lon,
		Query:     query,
		RadiusKm:  radiusKm,
		Limit:     limit,
	})
}

// Distance returns the great-circle distance in kilometers between two points.
func (c *Client) Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceKm(lat1, lon1, lat2, lon2)
}

// ClearCache drops all cached geocode results.
func (c *Client) ClearCache() { c.cache.Clear() }

// CacheSize returns the number of cached geocode results.
func (c *Client) CacheSize() int { return c.cache.Size() }
