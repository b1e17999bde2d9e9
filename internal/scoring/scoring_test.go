package scoring

import (
	"testing"
	"time"

	"github.com/MrWong99/callswarm/pkg/types"
)

func TestRank_BestOfferNormalizedToOne(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)

	offers := []types.SlotOffer{
		{ProviderID: "p1", Start: start.Add(6 * 24 * time.Hour), Confidence: 0.8},
		{ProviderID: "p2", Start: start.Add(1 * time.Hour), Confidence: 0.9},
	}
	providers := map[string]types.Provider{
		"p1": {ID: "p1", Rating: 4.5},
		"p2": {ID: "p2", Rating: 4.8},
	}
	travel := map[string]int{"p1": 30, "p2": 5}

	ranked, debug := Rank(offers, providers, travel, types.ScoreWeights{}, start, end)

	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked offers, got %d", len(ranked))
	}
	if ranked[0].ProviderID != "p2" {
		t.Fatalf("expected p2 to rank first (earliest + closer), got %s", ranked[0].ProviderID)
	}
	if ranked[0].Score == nil || *ranked[0].Score != 1.0 {
		t.Fatalf("expected top offer score to normalize to 1.0, got %v", ranked[0].Score)
	}
	if ranked[1].Score == nil || *ranked[1].Score >= 1.0 {
		t.Fatalf("expected second offer score below 1.0, got %v", ranked[1].Score)
	}
	if len(debug["p1"]) != 1 || len(debug["p2"]) != 1 {
		t.Fatalf("expected one breakdown entry per provider, got %#v", debug)
	}
}

func TestRank_DropsOffersWithUnknownProvider(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	offers := []types.SlotOffer{{ProviderID: "missing", Start: start}}
	ranked, debug := Rank(offers, map[string]types.Provider{}, nil, types.ScoreWeights{}, start, end)

	if len(ranked) != 0 {
		t.Fatalf("expected 0 ranked offers, got %d", len(ranked))
	}
	if len(debug) != 0 {
		t.Fatalf("expected no debug entries, got %#v", debug)
	}
}

func TestRank_EmptyOffers(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	ranked, debug := Rank(nil, nil, nil, types.ScoreWeights{}, start, start.Add(time.Hour))
	if len(ranked) != 0 || len(debug) != 0 {
		t.Fatalf("expected empty results, got ranked=%v debug=%v", ranked, debug)
	}
}
