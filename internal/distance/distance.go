// Package distance estimates travel time from the client's origin to each
// candidate provider, used by the scoring engine to penalize far-away
// offers.
package distance

import "context"

// Estimator reports the estimated one-way travel time, in minutes, between
// an origin point and a provider's address.
type Estimator interface {
	TravelMinutes(ctx context.Context, originLat, originLng, destLat, destLng float64) (int, error)
}
