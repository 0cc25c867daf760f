package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/clinicmap/geosearch/pkg/geo"
)

const (
	defaultGeoapifyBaseURL = "https://api.geoapify.com"
	geoapifyProviderKey    = "geoapify"

	// geoapifyMaxLimit is the provider's hard cap on requested results.
	geoapifyMaxLimit = 100
)

// GeoapifyClient is the paid, category-based places provider. It requires an
// API key and throttles server-side, so no client-side rate limiter is used.
type GeoapifyClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewGeoapifyClient creates a client. An empty apiKey leaves the client
// constructed but unable to serve requests.
func NewGeoapifyClient(apiKey string, opts ...GeoapifyOption) *GeoapifyClient {
	c := &GeoapifyClient{
		apiKey:  apiKey,
		baseURL: defaultGeoapifyBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GeoapifyOption configures the GeoapifyClient. Constructors are
// unexported: callers configure providers through the Client options.
type GeoapifyOption func(*GeoapifyClient)

// withGeoapifyBase sets a custom base URL (for testing).
func withGeoapifyBase(u string) GeoapifyOption {
	return func(c *GeoapifyClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// withGeoapifyHTTP sets a custom HTTP client.
func withGeoapifyHTTP(hc *http.Client) GeoapifyOption {
	return func(c *GeoapifyClient) { c.http = hc }
}

// Name identifies this provider in logs and fallback chains.
func (c *GeoapifyClient) Name() string { return geoapifyProviderKey }

// CanServe reports whether the provider can handle a proximity search
// request. Category search needs an API key and at least one category term.
func (c *GeoapifyClient) CanServe(req PlaceSearchRequest) bool {
	return c.apiKey != "" && len(req.Categories) > 0
}

// SearchPlaces queries places matching the request's categories inside a
// circular geofilter around the center. Every feature with valid point
// geometry is re-checked against the radius, accumulated up to the limit,
// and the kept results are sorted ascending by distance. An invalid payload
// shape yields an empty result, not an error.
func (c *GeoapifyClient) SearchPlaces(ctx context.Context, req PlaceSearchRequest) ([]PlaceSearchResult, error) {
	categories := strings.Join(req.Categories, ",")

	if c.apiKey == "" {
		return nil, &ConfigurationError{Provider: geoapifyProviderKey, Missing: "api key"}
	}

	limit := req.Limit
	if limit <= 0 || limit > geoapifyMaxLimit {
		limit = geoapifyMaxLimit
	}

	radiusMeters := int(req.RadiusKm * 1000)
	params := url.Values{
		"categories": {categories},
		"filter":     {fmt.Sprintf("circle:%f,%f,%d", req.Longitude, req.Latitude, radiusMeters)},
		"limit":      {strconv.Itoa(limit)},
		"apiKey":     {c.apiKey},
	}

	reqURL := c.baseURL + "/v2/places?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &PlaceSearchError{Query: categories, Err: eris.Wrap(err, "geoapify: build request")}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &PlaceSearchError{Query: categories, Err: eris.Wrap(err, "geoapify: request")}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &PlaceSearchError{Query: categories, Err: eris.Wrap(err, "geoapify: read body")}
	}
	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("geoapify: request failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, &PlaceSearchError{Query: categories, Err: eris.Errorf("geoapify: status %d", resp.StatusCode)}
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		zap.L().Debug("geoapify: invalid response shape, treating as empty",
			zap.String("categories", categories),
			zap.Error(err),
		)
		return []PlaceSearchResult{}, nil
	}

	type scored struct {
		place PlaceSearchResult
		dist  float64
	}
	var kept []scored
	for _, f := range fc.Features {
		point, ok := f.Geometry.(*geom.Point)
		if !ok || point.Stride() < 2 {
			continue
		}
		coords := point.Coords()
		lon, lat := coords[0], coords[1]

		dist := geo.DistanceKm(req.Latitude, req.Longitude, lat, lon)
		if dist > req.RadiusKm {
			continue
		}

		kept = append(kept, scored{place: geoapifyPlace(f, lat, lon), dist: dist})
		if req.Limit > 0 && len(kept) == req.Limit {
			break
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].dist < kept[j].dist })

	places := make([]PlaceSearchResult, len(kept))
	for i, s := range kept {
		places[i] = s.place
	}
	return places, nil
}

// geoapifyPlace maps a feature's properties bag to the canonical place shape.
func geoapifyPlace(f *geojson.Feature, lat, lon float64) PlaceSearchResult {
	props := f.Properties

	name := stringProp(props, "name", "address_line1")
	if name == "" {
		name = "Unknown"
	}

	placeID := stringProp(props, "place_id")
	if placeID == "" {
		placeID = f.ID
	}
	if placeID == "" {
		placeID = coordID(lat, lon)
	}

	place := PlaceSearchResult{
		PlaceID:     placeID,
		Name:        name,
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: stringProp(props, "formatted"),
		Address: PlaceAddress{
			Road:        stringProp(props, "street"),
			HouseNumber: stringProp(props, "housenumber"),
			City:        stringProp(props, "city"),
			State:       stringProp(props, "state"),
			Postcode:    stringProp(props, "postcode"),
			Country:     stringProp(props, "country"),
		},
	}

	if cats, ok := props["categories"].([]any); ok && len(cats) > 0 {
		if cat, ok := cats[0].(string); ok {
			place.Category = cat
		}
	}
	return place
}

// stringProp returns the first non-empty string value among keys.
func stringProp(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// coordID synthesizes a place identifier from coordinates when the provider
// supplies none.
func coordID(lat, lon float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lon)
}
