package call

import (
	"context"
	"testing"
	"time"

	"github.com/MrWong99/callswarm/internal/calendar"
	"github.com/MrWong99/callswarm/pkg/types"
)

func TestSeedFor_IsStableAcrossCalls(t *testing.T) {
	t.Parallel()
	a := seedFor("provider-1")
	b := seedFor("provider-1")
	if a != b {
		t.Fatalf("expected seedFor to be deterministic, got %d and %d", a, b)
	}
	if a == seedFor("provider-2") {
		t.Fatalf("expected different providers to hash to different seeds")
	}
}

func TestSimulatedDriver_Call_ProducesResultWithinRange(t *testing.T) {
	t.Parallel()
	d := &SimulatedDriver{
		Calendar:        calendar.NewResolver(calendar.ModeMock, nil, nil, nil),
		DefaultTimezone: "UTC",
	}

	campaign := &types.Campaign{
		Request: types.AppointmentRequest{
			DateRangeStart:  time.Now(),
			DateRangeEnd:    time.Now().Add(7 * 24 * time.Hour),
			DurationMinutes: 30,
		},
	}
	provider := types.Provider{ID: "provider-abc", Name: "Acme Dental"}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	result, err := d.Call(ctx, provider, campaign)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.ProviderID != provider.ID {
		t.Errorf("expected result for %q, got %q", provider.ID, result.ProviderID)
	}
	switch result.Outcome {
	case types.OutcomeSuccess, types.OutcomeNoAnswer, types.OutcomeNoSlots, types.OutcomeCompletedNoMatch:
	default:
		t.Errorf("unexpected outcome %q", result.Outcome)
	}
	for _, offer := range result.Offers {
		if offer.Start.Before(campaign.Request.DateRangeStart) || offer.End.After(campaign.Request.DateRangeEnd) {
			t.Errorf("offer %+v falls outside requested date range", offer)
		}
	}
}

func TestSimulatedDriver_Call_RespectsCancellation(t *testing.T) {
	t.Parallel()
	d := &SimulatedDriver{
		Calendar:        calendar.NewResolver(calendar.ModeMock, nil, nil, nil),
		DefaultTimezone: "UTC",
	}
	campaign := &types.Campaign{
		Request: types.AppointmentRequest{
			DateRangeStart:  time.Now(),
			DateRangeEnd:    time.Now().Add(7 * 24 * time.Hour),
			DurationMinutes: 30,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Call(ctx, types.Provider{ID: "provider-xyz"}, campaign)
	if err == nil {
		t.Fatal("expected an error from an already-cancelled context")
	}
}

func TestResolveLocation_FallsBackToUTC(t *testing.T) {
	t.Parallel()
	if loc := resolveLocation("", "not-a-real-zone"); loc != time.UTC {
		t.Errorf("expected fallback to UTC, got %v", loc)
	}
	if loc := resolveLocation("America/New_York"); loc.String() != "America/New_York" {
		t.Errorf("expected America/New_York, got %v", loc)
	}
}
