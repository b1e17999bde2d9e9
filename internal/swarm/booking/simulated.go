package booking

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/MrWong99/callswarm/pkg/types"
)

// SimulatedDriver is the deterministic stand-in booking callback used for
// demos and tests, seeded from the offer itself so repeated runs agree.
type SimulatedDriver struct{}

// Book implements Driver.
func (SimulatedDriver) Book(ctx context.Context, offer types.SlotOffer, campaign *types.Campaign) (types.CallResult, error) {
	seed := bookingSeed(offer)

	if err := ctxSleep(ctx, time.Duration(4000+int(seed%3)*1500)*time.Millisecond); err != nil {
		return types.CallResult{}, err
	}

	// ~10% rejection rate.
	if seed%10 == 0 {
		return types.CallResult{
			ProviderID: offer.ProviderID,
			Outcome:    types.OutcomeBookingRejected,
			Notes:      fmt.Sprintf("Simulated: %s said the slot is no longer available", offer.ProviderID),
		}, nil
	}

	return types.CallResult{
		ProviderID: offer.ProviderID,
		Outcome:    types.OutcomeBookingConfirmed,
		Notes:      fmt.Sprintf("Simulated: confirmed %s with %s", offer.Start.Format(time.RFC3339), offer.ProviderID),
	}, nil
}

func bookingSeed(offer types.SlotOffer) uint64 {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:book", offer.ProviderID, offer.Start.Format(time.RFC3339))))
	return binary.BigEndian.Uint64(sum[:8])
}

// ctxSleep blocks for d or until ctx is done, whichever comes first.
func ctxSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
