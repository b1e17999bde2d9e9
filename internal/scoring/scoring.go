// Package scoring ranks a campaign's collected slot offers by a weighted
// blend of earliest-start, provider rating, travel distance, and the
// provider's own confidence in the offer.
package scoring

import (
	"time"

	"github.com/MrWong99/callswarm/pkg/types"
)

// Default weights, used whenever an AppointmentRequest leaves a weight at
// its zero value.
const (
	DefaultEarliestWeight   = 0.5
	DefaultRatingWeight     = 0.25
	DefaultDistanceWeight   = 0.2
	DefaultPreferenceWeight = 0.05
)

// maxTravelCapMinutes is the travel time beyond which distance no longer
// penalizes the score further.
const maxTravelCapMinutes = 60

// Breakdown is the per-criterion detail behind one offer's score, kept for
// debugging and surfaced on the campaign's Debug field.
type Breakdown struct {
	Earliest      float64            `json:"earliest"`
	Rating        float64            `json:"rating"`
	Distance      float64            `json:"distance"`
	Preference    float64            `json:"preference"`
	Weights       types.ScoreWeights `json:"weights"`
	RawScore      float64            `json:"raw_score"`
	RelativeScore float64            `json:"relative_score"`
}

func resolveWeights(w types.ScoreWeights) types.ScoreWeights {
	if w.Earliest == 0 {
		w.Earliest = DefaultEarliestWeight
	}
	if w.Rating == 0 {
		w.Rating = DefaultRatingWeight
	}
	if w.Distance == 0 {
		w.Distance = DefaultDistanceWeight
	}
	if w.Preference == 0 {
		w.Preference = DefaultPreferenceWeight
	}
	return w
}

// score computes a single offer's raw (pre-normalization) score in [0, 1]
// along with its breakdown.
func score(offer types.SlotOffer, provider types.Provider, travelMinutes int, weights types.ScoreWeights, windowStart, windowEnd time.Time) (float64, Breakdown) {
	windowSeconds := windowEnd.Sub(windowStart).Seconds()
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	elapsed := offer.Start.Sub(windowStart).Seconds()
	earliestScore := 1.0 - elapsed/windowSeconds
	if earliestScore < 0 {
		earliestScore = 0
	}

	ratingScore := provider.Rating / 5.0

	capped := travelMinutes
	if capped > maxTravelCapMinutes {
		capped = maxTravelCapMinutes
	}
	distanceScore := 1.0 - float64(capped)/maxTravelCapMinutes

	prefScore := offer.Confidence

	total := weights.Earliest*earliestScore +
		weights.Rating*ratingScore +
		weights.Distance*distanceScore +
		weights.Preference*prefScore

	return total, Breakdown{
		Earliest:   round4(earliestScore),
		Rating:     round4(ratingScore),
		Distance:   round4(distanceScore),
		Preference: round4(prefScore),
		Weights:    weights,
	}
}

// Rank scores and sorts offers descending, mutating each offer's Score
// in place. Scores are relative: the best offer is normalized to 1.0 and
// the rest are scaled proportionally. Offers whose provider is missing
// from providersByID are dropped silently.
//
// travelByProvider supplies each provider's estimated travel minutes; a
// missing entry defaults to 20 minutes.
func Rank(offers []types.SlotOffer, providersByID map[string]types.Provider, travelByProvider map[string]int, weights types.ScoreWeights, windowStart, windowEnd time.Time) ([]types.SlotOffer, map[string][]Breakdown) {
	weights = resolveWeights(weights)

	var entries []scoredEntry
	for _, offer := range offers {
		provider, ok := providersByID[offer.ProviderID]
		if !ok {
			continue
		}
		travel, ok := travelByProvider[offer.ProviderID]
		if !ok {
			travel = 20
		}
		raw, breakdown := score(offer, provider, travel, weights, windowStart, windowEnd)
		entries = append(entries, scoredEntry{raw: raw, offer: offer, breakdown: breakdown})
	}

	sortDescending(entries)

	maxScore := 1.0
	if len(entries) > 0 {
		maxScore = entries[0].raw
	}

	sorted := make([]types.SlotOffer, len(entries))
	debug := make(map[string][]Breakdown, len(entries))
	for i := range entries {
		relative := entries[i].raw
		if maxScore > 0 {
			relative = round4(entries[i].raw / maxScore)
		}
		entries[i].offer.Score = &relative
		entries[i].breakdown.RawScore = round4(entries[i].raw)
		entries[i].breakdown.RelativeScore = relative

		sorted[i] = entries[i].offer
		pid := entries[i].offer.ProviderID
		debug[pid] = append(debug[pid], entries[i].breakdown)
	}

	return sorted, debug
}

// scoredEntry pairs a raw (pre-normalization) score with the offer and
// breakdown it produced.
type scoredEntry struct {
	raw       float64
	offer     types.SlotOffer
	breakdown Breakdown
}

func sortDescending(entries []scoredEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].raw > entries[j-1].raw; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

func round4(v float64) float64 {
	const p = 10000
	return float64(int64(v*p+sign(v)*0.5)) / p
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
