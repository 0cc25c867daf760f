package geocode

import "fmt"

// GeocodeError reports a failed address lookup. Address is the assembled
// query string; Err is nil when the provider simply returned no results.
type GeocodeError struct {
	Address string
	Err     error
}

func (e *GeocodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocode %q: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("geocode %q: no results", e.Address)
}

func (e *GeocodeError) Unwrap() error { return e.Err }

// ReverseGeocodeError reports a failed coordinate lookup. Err is nil when
// the provider returned a response without a resolvable address.
type ReverseGeocodeError struct {
	Latitude  float64
	Longitude float64
	Err       error
}

func (e *ReverseGeocodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reverse geocode (%.4f, %.4f): %v", e.Latitude, e.Longitude, e.Err)
	}
	return fmt.Sprintf("reverse geocode (%.4f, %.4f): no result", e.Latitude, e.Longitude)
}

func (e *ReverseGeocodeError) Unwrap() error { return e.Err }

// PlaceSearchError reports a failed proximity search. Query holds the
// free-text query or, for the category provider, the joined category terms.
type PlaceSearchError struct {
	Query string
	Err   error
}

func (e *PlaceSearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("place search %q: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("place search %q: failed", e.Query)
}

func (e *PlaceSearchError) Unwrap() error { return e.Err }

// ConfigurationError reports a provider that cannot operate because a
// required setting is absent.
type ConfigurationError struct {
	Provider string
	Missing  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Provider, e.Missing)
}
