package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MrWong99/callswarm/internal/resilience"
	"github.com/MrWong99/callswarm/pkg/types"
)

// placesCacheTTL matches the reference backend's one-hour places cache.
const placesCacheTTL = time.Hour

const placesCacheSize = 512

// PlacesClient is the external collaborator that searches a real places
// backend for candidate providers.
type PlacesClient interface {
	Search(ctx context.Context, service, location string, originLat, originLng *float64) ([]types.Provider, error)
}

// RemoteSearcher wraps a PlacesClient with a TTL cache and falls back to a
// DemoSearcher whenever the backend errors, so a places-API outage degrades
// to demo data instead of failing the campaign outright.
type RemoteSearcher struct {
	client   PlacesClient
	fallback Searcher
	cache    *lru.LRU[string, []types.Provider]
	breaker  *resilience.CircuitBreaker
}

// NewRemoteSearcher returns a Searcher backed by client.
func NewRemoteSearcher(client PlacesClient) *RemoteSearcher {
	return &RemoteSearcher{
		client:   client,
		fallback: NewDemoSearcher(),
		cache:    lru.NewLRU[string, []types.Provider](placesCacheSize, nil, placesCacheTTL),
		breaker:  resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "directory.places"}),
	}
}

var _ Searcher = (*RemoteSearcher)(nil)

// Search implements Searcher.
func (r *RemoteSearcher) Search(ctx context.Context, service, location string, originLat, originLng *float64) ([]types.Provider, error) {
	key := searchCacheKey(service, location, originLat, originLng)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	var results []types.Provider
	err := r.breaker.Execute(func() error {
		var callErr error
		results, callErr = r.client.Search(ctx, service, location, originLat, originLng)
		return callErr
	})
	if err != nil {
		slog.Warn("directory: places search failed, falling back to demo data", "error", err)
		return r.fallback.Search(ctx, service, location, originLat, originLng)
	}

	r.cache.Add(key, results)
	return results, nil
}

func searchCacheKey(service, location string, lat, lng *float64) string {
	latV, lngV := 0.0, 0.0
	if lat != nil {
		latV = *lat
	}
	if lng != nil {
		lngV = *lng
	}
	return fmt.Sprintf("%s|%s|%.5f|%.5f", service, location, latV, lngV)
}
