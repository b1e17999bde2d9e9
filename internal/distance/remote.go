package distance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MrWong99/callswarm/internal/resilience"
)

// cacheTTL is how long a resolved travel time is trusted before the remote
// client is queried again for the same origin/destination pair.
const cacheTTL = time.Hour

const cacheSize = 2048

// Client is the external collaborator that resolves travel time between two
// points against a real routing backend.
type Client interface {
	TravelMinutes(ctx context.Context, originLat, originLng, destLat, destLng float64) (int, error)
}

// RemoteEstimator wraps a Client with a TTL cache and falls back to
// MockEstimator whenever the client errors, so a routing outage degrades
// distance scoring instead of blocking the whole campaign.
type RemoteEstimator struct {
	client   Client
	fallback Estimator
	cache    *lru.LRU[string, int]
	breaker  *resilience.CircuitBreaker
}

// NewRemoteEstimator returns an Estimator backed by client, caching results
// for cacheTTL and falling back to a MockEstimator on any client error or
// while the client's circuit breaker is open.
func NewRemoteEstimator(client Client) *RemoteEstimator {
	return &RemoteEstimator{
		client:   client,
		fallback: NewMockEstimator(),
		cache:    lru.NewLRU[string, int](cacheSize, nil, cacheTTL),
		breaker:  resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "distance.remote"}),
	}
}

var _ Estimator = (*RemoteEstimator)(nil)

// TravelMinutes implements Estimator.
func (r *RemoteEstimator) TravelMinutes(ctx context.Context, originLat, originLng, destLat, destLng float64) (int, error) {
	key := cacheKey(originLat, originLng, destLat, destLng)
	if minutes, ok := r.cache.Get(key); ok {
		return minutes, nil
	}

	var minutes int
	err := r.breaker.Execute(func() error {
		var callErr error
		minutes, callErr = r.client.TravelMinutes(ctx, originLat, originLng, destLat, destLng)
		return callErr
	})
	if err != nil {
		slog.Warn("distance: remote estimator failed, using mock fallback", "error", err)
		return r.fallback.TravelMinutes(ctx, originLat, originLng, destLat, destLng)
	}

	r.cache.Add(key, minutes)
	return minutes, nil
}

func cacheKey(originLat, originLng, destLat, destLng float64) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f", originLat, originLng, destLat, destLng)
}
