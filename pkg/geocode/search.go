package geocode

import (
	"context"

	"go.uber.org/zap"
)

// PlaceProvider is the capability shared by both provider variants for
// proximity search. ProximitySearch holds an ordered list of these and tries
// them in turn.
type PlaceProvider interface {
	Name() string
	CanServe(req PlaceSearchRequest) bool
	SearchPlaces(ctx context.Context, req PlaceSearchRequest) ([]PlaceSearchResult, error)
}

// ProximitySearch tries providers in configured priority order and returns
// the first successful, non-empty result set. Results are never merged
// across providers: a single provider's filtered, sorted result set is
// authoritative for a request.
type ProximitySearch struct {
	providers []PlaceProvider
}

// NewProximitySearch creates a search over the given providers, tried in
// slice order.
func NewProximitySearch(providers ...PlaceProvider) *ProximitySearch {
	return &ProximitySearch{providers: providers}
}

// Search executes the request against each serviceable provider in order. A
// provider error triggers fallback to the next provider instead of
// propagating; only when every provider has failed does the most recent
// error surface. A provider that succeeds with an empty result also falls
// through, since a later provider may know places the earlier one does not;
// if every provider comes back empty the overall result is empty, not an
// error.
func (s *ProximitySearch) Search(ctx context.Context, req PlaceSearchRequest) ([]PlaceSearchResult, error) {
	var lastErr error
	succeeded := false

	for _, p := range s.providers {
		if !p.CanServe(req) {
			continue
		}

		places, err := p.SearchPlaces(ctx, req)
		if err != nil {
			zap.L().Debug("proximity search: provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		succeeded = true
		if len(places) > 0 {
			return places, nil
		}
	}

	if succeeded {
		return []PlaceSearchResult{}, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &ConfigurationError{Provider: "proximity search", Missing: "serviceable provider"}
}
