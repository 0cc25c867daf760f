package geocode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeoapify(t *testing.T, apiKey string, handler http.HandlerFunc) *GeoapifyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeoapifyClient(apiKey, withGeoapifyBase(srv.URL))
}

func TestGeoapify_MissingAPIKey(t *testing.T) {
	client := NewGeoapifyClient("")

	_, err := client.SearchPlaces(context.Background(), PlaceSearchRequest{
		Latitude: 40.7128, Longitude: -74.0060, Categories: []string{"healthcare.veterinary"}, RadiusKm: 10, Limit: 50,
	})
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "api key")
}

func TestGeoapify_RequestParameters(t *testing.T) {
	client := newTestGeoapify(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/places", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "healthcare.veterinary,pet.shop", q.Get("categories"))
		assert.Equal(t, "circle:-74.006000,40.712800,10000", q.Get("filter"))
		assert.Equal(t, "100", q.Get("limit"), "provider hard cap is 100")
		assert.Equal(t, "test-key", q.Get("apiKey"))
		_, _ = io.WriteString(w, `{"type":"FeatureCollection","features":[]}`)
	})

	places, err := client.SearchPlaces(context.Background(), PlaceSearchRequest{
		Latitude:   40.7128,
		Longitude:  -74.0060,
		Categories: []string{"healthcare.veterinary", "pet.shop"},
		RadiusKm:   10,
		Limit:      150,
	})
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestGeoapify_RadiusFilterAndOrdering(t *testing.T) {
	// Features due north of (40.7128, -74.0060): ~2 km, ~15 km, ~5 km.
	client := newTestGeoapify(t, "test-key", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[-74.0060,40.7308]},
			 "properties":{"name":"Near Vet","place_id":"p-near","formatted":"Near Vet, New York","categories":["healthcare.veterinary"]}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[-74.0060,40.8477]},
			 "properties":{"name":"Far Vet","place_id":"p-far","categories":["healthcare.veterinary"]}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[-74.0060,40.7578]},
			 "properties":{"name":"Mid Vet","place_id":"p-mid","categories":["healthcare.veterinary"]}}
		]}`)
	})

	places, err := client.SearchPlaces(context.Background(), PlaceSearchRequest{
		Latitude:   40.7128,
		Longitude:  -74.0060,
		Categories: []string{"healthcare.veterinary"},
		RadiusKm:   10,
		Limit:      50,
	})
	require.NoError(t, err)
	require.Len(t, places, 2, "the 15 km feature must be cut")

	assert.Equal(t, "Near Vet", places[0].Name)
	assert.Equal(t, "Mid Vet", places[1].Name)
	assert.Equal(t, "p-near", places[0].PlaceID)
	assert.Equal(t, "healthcare.veterinary", places[0].Category)
	assert.Equal(t, "Near Vet, New York", places[0].DisplayName)
}

func TestGeoapify_NameAndIDFallbacks(t *testing.T) {
	client := newTestGeoapify(t, "test-key", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"type":"FeatureCollection","features":[
			{"type":"Feature","id":"feat-1","geometry":{"type":"Point","coordinates":[-74.0060,40.7150]},
			 "properties":{"address_line1":"12 Pet Lane"}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[-74.0060,40.7200]},
			 "properties":{}}
		]}`)
	})

	places, err := client.SearchPlaces(context.Background(), PlaceSearchRequest{
		Latitude: 40.7128, Longitude: -74.0060, Categories: []string{"pet.shop"}, RadiusKm: 10, Limit: 50,
	})
	require.NoError(t, err)
	require.Len(t, places, 2)

	// No name property: fall back to address_line1, then "Unknown".
	assert.Equal(t, "12 Pet Lane", places[0].Name)
	assert.Equal(t, "Unknown", places[1].Name)

	// No place_id property: fall back to the feature id, then coordinates.
	assert.Equal(t, "feat-1", places[0].PlaceID)
	assert.Equal(t, "40.720000,-74.006000", places[1].PlaceID)
}

func TestGeoapify_StructuredAddressMapping(t *testing.T) {
	client := newTestGeoapify(t, "test-key", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[-74.0060,40.7150]},
			 "properties":{"name":"Happy Paws","street":"Broad St","housenumber":"5","city":"New York",
			               "state":"New York","postcode":"10004","country":"United States"}}
		]}`)
	})

	places, err := client.SearchPlaces(context.Background(), PlaceSearchRequest{
		Latitude: 40.7128, Longitude: -74.0060, Categories: []string{"healthcare.veterinary"}, RadiusKm: 10, Limit: 50,
	})
	require.NoError(t, err)
	require.Len(t, places, 1)

	addr := places[0].Address
	assert.Equal(t, "Broad St", addr.Road)
	assert.Equal(t, "5", addr.HouseNumber)
	assert.Equal(t, "New York", addr.City)
	assert.Equal(t, "10004", addr.Postcode)
	assert.Equal(t, "United States", addr.Country)
}

func TestGeoapify_LimitAccumulation(t *testing.T) {
	client := newTestGeoapify(t, "test-key", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[-74.0060,40.7150]},"properties":{"name":"A","place_id":"a"}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[-74.0060,40.7200]},"properties":{"name":"B","place_id":"b"}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[-74.0060,40.7250]},"properties":{"name":"C","place_id":"c"}}
		]}`)
	})

	places, err := client.SearchPlaces(context.Background(), PlaceSearchRequest{
		Latitude: 40.7128, Longitude: -74.0060, Categories: []string{"pet.shop"}, RadiusKm: 10, Limit: 2,
	})
	require.NoError(t, err)
	assert.Len(t, places, 2)
}

func TestGeoapify_EmptyFeatures(t *testing.T) {
	client := newTestGeoapify(t, "test-key", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"type":"FeatureCollection","features":[]}`)
	})

	places, err := client.SearchPlaces(context.Background(), PlaceSearchRequest{
		Latitude: 40.7128, Longitude: -74.0060, Categories: []string{"healthcare.veterinary"}, RadiusKm: 10, Limit: 50,
	})
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestGeoapify_InvalidShapeIsEmpty(t *testing.T) {
	client := newTestGeoapify(t, "test-key", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"features":"nope"}`)
	})

	places, err := client.SearchPlaces(context.Background(), PlaceSearchRequest{
		Latitude: 40.7128, Longitude: -74.0060, Categories: []string{"pet.shop"}, RadiusKm: 10, Limit: 50,
	})
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestGeoapify_RequestFailure(t *testing.T) {
	client := newTestGeoapify(t, "test-key", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid key"}`)
	})

	_, err := client.SearchPlaces(context.Background(), PlaceSearchRequest{
		Latitude: 40.7128, Longitude: -74.0060, Categories: []string{"pet.shop"}, RadiusKm: 10, Limit: 50,
	})
	var psErr *PlaceSearchError
	require.True(t, errors.As(err, &psErr))
	assert.Equal(t, "pet.shop", psErr.Query)
}
