// Package geocode resolves addresses to coordinates, coordinates to
// addresses, and proximity searches for places near a point. It fronts two
// HTTP providers behind a shared cache and rate limiter: a free text-search
// provider and a paid category-based places provider, tried in priority
// order with fallback.
package geocode

// AddressInput is a structured address for geocoding. Only Address is
// required; empty parts are skipped when the query string is assembled.
type AddressInput struct {
	Address    string
	City       string
	State      string
	PostalCode string
}

// GeocodeResult is a resolved coordinate pair for an address.
type GeocodeResult struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// ReverseGeocodeResult is the address resolved for a coordinate pair.
// Address carries the provider's structured address block as raw JSON; the
// provider's field set varies by location, so it is passed through opaquely.
type ReverseGeocodeResult struct {
	Address     string
	DisplayName string
}

// PlaceAddress is the structured address of a place search result. Fields
// the provider does not report are empty.
type PlaceAddress struct {
	Road        string
	HouseNumber string
	City        string
	State       string
	Postcode    string
	Country     string
}

// PlaceSearchResult is one place returned by a proximity search. PlaceID is
// provider-scoped: results are never merged across providers, so ids are
// only comparable within a single response.
type PlaceSearchResult struct {
	PlaceID     string
	Name        string
	Latitude    float64
	Longitude   float64
	DisplayName string
	Address     PlaceAddress
	Type        string
	Category    string
}

// PlaceSearchRequest describes a proximity search around a center point.
// Query drives free-text search; Categories drive category search and fold
// into a query when only the text provider can serve. RadiusKm bounds the
// final result set regardless of what the provider returns.
type PlaceSearchRequest struct {
	Latitude   float64
	Longitude  float64
	Query      string
	Categories []string
	RadiusKm   float64
	Limit      int
}
