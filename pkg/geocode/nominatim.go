package geocode

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/clinicmap/geosearch/pkg/geo"
)

const (
	defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent        = "clinicmap-geosearch/1.0"
	nominatimProviderKey    = "nominatim"

	// kmPerDegreeLat approximates one degree of latitude, used only to size
	// the advisory viewbox sent with proximity-biased searches.
	kmPerDegreeLat = 111.0

	// nominatimSearchPage is the provider's maximum page size. Proximity
	// searches always request a full page: the radius cut happens client-side,
	// so a smaller upstream page could starve the final result below the
	// caller's limit.
	nominatimSearchPage = 50
)

// NominatimClient is the free, quota-limited text-search provider. It
// supports geocoding, reverse geocoding, and free-text proximity search.
// Every outbound call passes through the shared rate limiter; the cache
// short-circuits repeat geocode queries before any of that happens.
type NominatimClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   Limiter
	cache     *Cache
}

// NewNominatimClient creates a client backed by the given cache and limiter.
// Both are owned by the caller and shared for the life of the process.
func NewNominatimClient(cache *Cache, limiter Limiter, opts ...NominatimOption) *NominatimClient {
	c := &NominatimClient{
		baseURL:   defaultNominatimBaseURL,
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: 10 * time.Second},
		limiter:   limiter,
		cache:     cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NominatimOption configures the NominatimClient. Constructors are
// unexported: callers configure providers through the Client options.
type NominatimOption func(*NominatimClient)

// withNominatimBase sets a custom base URL (for testing or self-hosting).
func withNominatimBase(u string) NominatimOption {
	return func(c *NominatimClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// withNominatimAgent sets the User-Agent header required by the usage policy.
func withNominatimAgent(ua string) NominatimOption {
	return func(c *NominatimClient) { c.userAgent = ua }
}

// withNominatimHTTP sets a custom HTTP client.
func withNominatimHTTP(hc *http.Client) NominatimOption {
	return func(c *NominatimClient) { c.http = hc }
}

// nominatimResult is a single entry of the provider's JSON response.
// Coordinates arrive as strings.
type nominatimResult struct {
	PlaceID     json.Number      `json:"place_id"`
	OSMType     string           `json:"osm_type"`
	OSMID       json.Number      `json:"osm_id"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Name        string           `json:"name"`
	Class       string           `json:"class"`
	Type        string           `json:"type"`
	Address     nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	Road        string `json:"road"`
	HouseNumber string `json:"house_number"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
}

// Name identifies this provider in logs and fallback chains.
func (c *NominatimClient) Name() string { return nominatimProviderKey }

// CanServe reports whether the provider can handle a proximity search
// request. Free-text search serves any request with a query or with category
// terms to fold into one.
func (c *NominatimClient) CanServe(req PlaceSearchRequest) bool {
	return req.Query != "" || len(req.Categories) > 0
}

// Geocode resolves an address to coordinates. The cache is checked first; a
// hit returns without rate limiting or a network call. Zero provider results
// and transport failures surface as *GeocodeError embedding the assembled
// address string.
func (c *NominatimClient) Geocode(ctx context.Context, addr AddressInput) (*GeocodeResult, error) {
	full := formatAddress(addr)
	key := cacheKey(addr)

	if cached, ok := c.cache.Get(key); ok {
		zap.L().Debug("geocode cache hit", zap.String("key", key))
		return &cached, nil
	}

	if err := c.limiter.Acquire(ctx, nominatimProviderKey); err != nil {
		return nil, &GeocodeError{Address: full, Err: eris.Wrap(err, "nominatim: rate limit")}
	}

	params := url.Values{
		"q":              {full},
		"format":         {"json"},
		"addressdetails": {"1"},
		"limit":          {"1"},
	}
	body, err := c.get(ctx, "/search", params)
	if err != nil {
		return nil, &GeocodeError{Address: full, Err: err}
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &GeocodeError{Address: full, Err: eris.Wrap(err, "nominatim: parse response")}
	}
	if len(results) == 0 {
		return nil, &GeocodeError{Address: full}
	}

	lat, lon, err := parseNominatimCoords(results[0])
	if err != nil {
		return nil, &GeocodeError{Address: full, Err: err}
	}

	result := GeocodeResult{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: results[0].DisplayName,
	}
	c.cache.Set(key, result)
	return &result, nil
}

// ReverseGeocode resolves coordinates to an address. The provider's address
// block is returned opaquely. A response without a display name fails with
// *ReverseGeocodeError.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lon float64) (*ReverseGeocodeResult, error) {
	if err := c.limiter.Acquire(ctx, nominatimProviderKey); err != nil {
		return nil, &ReverseGeocodeError{Latitude: lat, Longitude: lon, Err: eris.Wrap(err, "nominatim: rate limit")}
	}

	params := url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format":         {"json"},
		"addressdetails": {"1"},
	}
	body, err := c.get(ctx, "/reverse", params)
	if err != nil {
		return nil, &ReverseGeocodeError{Latitude: lat, Longitude: lon, Err: err}
	}

	var resp struct {
		DisplayName string          `json:"display_name"`
		Address     json.RawMessage `json:"address"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ReverseGeocodeError{Latitude: lat, Longitude: lon, Err: eris.Wrap(err, "nominatim: parse response")}
	}
	if resp.DisplayName == "" {
		return nil, &ReverseGeocodeError{Latitude: lat, Longitude: lon}
	}

	return &ReverseGeocodeResult{
		Address:     string(resp.Address),
		DisplayName: resp.DisplayName,
	}, nil
}

// SearchPlaces runs a free-text search biased toward a bounding box around
// the center point. The box is advisory (bounded=0): the provider may return
// points outside it, so every candidate is re-checked against the radius
// before it is kept. Results are sorted ascending by distance and trimmed to
// the requested limit. A malformed or non-array payload yields an empty
// result, not an error.
func (c *NominatimClient) SearchPlaces(ctx context.Context, req PlaceSearchRequest) ([]PlaceSearchResult, error) {
	query := req.Query
	if query == "" {
		query = strings.Join(req.Categories, " ")
	}

	if err := c.limiter.Acquire(ctx, nominatimProviderKey); err != nil {
		return nil, &PlaceSearchError{Query: query, Err: eris.Wrap(err, "nominatim: rate limit")}
	}

	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(nominatimSearchPage)},
		"viewbox":        {viewbox(req.Latitude, req.Longitude, req.RadiusKm)},
		"bounded":        {"0"},
	}
	body, err := c.get(ctx, "/search", params)
	if err != nil {
		return nil, &PlaceSearchError{Query: query, Err: err}
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		zap.L().Debug("nominatim: malformed search payload, treating as empty",
			zap.String("query", query),
			zap.Error(err),
		)
		return []PlaceSearchResult{}, nil
	}

	type scored struct {
		place PlaceSearchResult
		dist  float64
	}
	candidates := make([]scored, 0, len(results))
	for _, r := range results {
		lat, lon, parseErr := parseNominatimCoords(r)
		if parseErr != nil {
			continue
		}
		dist := geo.DistanceKm(req.Latitude, req.Longitude, lat, lon)
		if dist > req.RadiusKm {
			continue
		}
		candidates = append(candidates, scored{place: r.toPlace(lat, lon), dist: dist})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if req.Limit > 0 && len(candidates) > req.Limit {
		candidates = candidates[:req.Limit]
	}

	places := make([]PlaceSearchResult, len(candidates))
	for i, s := range candidates {
		places[i] = s.place
	}
	return places, nil
}

// toPlace maps a provider entry to the canonical place shape.
func (r nominatimResult) toPlace(lat, lon float64) PlaceSearchResult {
	name := r.Name
	if name == "" {
		// Older responses carry no name field; the display name leads with it.
		name, _, _ = strings.Cut(r.DisplayName, ",")
	}

	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}

	return PlaceSearchResult{
		PlaceID:     nominatimPlaceID(r, lat, lon),
		Name:        name,
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: r.DisplayName,
		Address: PlaceAddress{
			Road:        r.Address.Road,
			HouseNumber: r.Address.HouseNumber,
			City:        city,
			State:       r.Address.State,
			Postcode:    r.Address.Postcode,
			Country:     r.Address.Country,
		},
		Type:     r.Type,
		Category: r.Class,
	}
}

// nominatimPlaceID picks the best available identifier: the numeric place id,
// else the OSM type+id pair, else coordinates.
func nominatimPlaceID(r nominatimResult, lat, lon float64) string {
	if r.PlaceID.String() != "" {
		return r.PlaceID.String()
	}
	if r.OSMType != "" && r.OSMID.String() != "" {
		return r.OSMType + "/" + r.OSMID.String()
	}
	return coordID(lat, lon)
}

// parseNominatimCoords converts the provider's string coordinates.
func parseNominatimCoords(r nominatimResult) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "nominatim: parse lat %q", r.Lat)
	}
	lon, err = strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "nominatim: parse lon %q", r.Lon)
	}
	return lat, lon, nil
}

// viewbox returns the advisory bounding box around the center, sized by the
// search radius, in the provider's lon,lat corner order.
func viewbox(lat, lon, radiusKm float64) string {
	latDelta := radiusKm / kmPerDegreeLat
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01 // degenerate near the poles
	}
	lonDelta := radiusKm / (kmPerDegreeLat * cosLat)

	left := lon - lonDelta
	right := lon + lonDelta
	top := lat + latDelta
	bottom := lat - latDelta
	return strconv.FormatFloat(left, 'f', 6, 64) + "," +
		strconv.FormatFloat(top, 'f', 6, 64) + "," +
		strconv.FormatFloat(right, 'f', 6, 64) + "," +
		strconv.FormatFloat(bottom, 'f', 6, 64)
}

// get issues a GET against the provider and returns the body on a 2xx
// response. Non-2xx statuses and transport failures come back as errors.
func (c *NominatimClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: status %d", resp.StatusCode)
	}
	return body, nil
}
