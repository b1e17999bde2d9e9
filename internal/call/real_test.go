package call

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/callswarm/internal/store"
	"github.com/MrWong99/callswarm/pkg/types"
)

type fakeDialer struct {
	callID string
	err    error
}

func (f fakeDialer) Dial(_ context.Context, _, _, _ string) (string, error) {
	return f.callID, f.err
}

func TestRealDriver_Call_ReturnsFailedWhenDialFails(t *testing.T) {
	t.Parallel()
	d := &RealDriver{
		Dialer: fakeDialer{err: errors.New("carrier unreachable")},
		Store:  store.New(nil),
	}

	result, err := d.Call(context.Background(), types.Provider{ID: "provider-1", Phone: "+15551234567"}, &types.Campaign{CampaignID: "camp-1"})
	if err != nil {
		t.Fatalf("Call should not return an error, got %v", err)
	}
	if result.Outcome != types.OutcomeFailed {
		t.Errorf("expected OutcomeFailed, got %q", result.Outcome)
	}
}

func TestRealDriver_Call_WaitsForBridgeResult(t *testing.T) {
	t.Parallel()
	s := store.New(nil)
	d := &RealDriver{
		Dialer: fakeDialer{callID: "CA123"},
		Store:  s,
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		s.CompleteCall("CA123", types.CallResult{
			ProviderID: "provider-1",
			Outcome:    types.OutcomeSuccess,
			Notes:      "answered",
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := d.Call(ctx, types.Provider{ID: "provider-1", Phone: "+15551234567"}, &types.Campaign{CampaignID: "camp-1"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Outcome != types.OutcomeSuccess {
		t.Errorf("expected OutcomeSuccess, got %q", result.Outcome)
	}
	if result.CallID != "CA123" {
		t.Errorf("expected CallID to be stamped onto the result, got %q", result.CallID)
	}
}

func TestRealDriver_Call_TimesOutWaitingForBridge(t *testing.T) {
	t.Parallel()
	d := &RealDriver{
		Dialer: fakeDialer{callID: "CA999"},
		Store:  store.New(nil),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	result, err := d.Call(ctx, types.Provider{ID: "provider-2", Phone: "+15559876543"}, &types.Campaign{CampaignID: "camp-2"})
	if err != nil {
		t.Fatalf("Call should not return an error, got %v", err)
	}
	if result.Outcome != types.OutcomeFailed {
		t.Errorf("expected OutcomeFailed on timeout, got %q", result.Outcome)
	}
}
