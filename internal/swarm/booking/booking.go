// Package booking implements a campaign's phase-2 confirmation pass: calling
// back the top-ranked providers in order until one confirms, or giving up
// and leaving the campaign's offers available for manual review.
package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrWong99/callswarm/internal/store"
	"github.com/MrWong99/callswarm/pkg/types"
)

// maxAttempts bounds how many top-ranked offers are tried before the
// booking phase gives up.
const maxAttempts = 3

const perAttemptTimeout = 30 * time.Second

var (
	// ErrBookingRejected is recorded when a provider declines to honor an
	// offer during the confirmation callback.
	ErrBookingRejected = errors.New("booking: provider rejected the slot")

	// ErrBookingTimeout is recorded when a confirmation callback does not
	// conclude within perAttemptTimeout.
	ErrBookingTimeout = errors.New("booking: confirmation call timed out")
)

// Driver places one confirmation callback for a single ranked offer.
type Driver interface {
	Book(ctx context.Context, offer types.SlotOffer, campaign *types.Campaign) (types.CallResult, error)
}

// Run tries ranked[:maxAttempts] in order, moving the campaign to "booking"
// immediately and to "booked" on the first confirmation. If every attempt is
// exhausted without a confirmation, the campaign falls back to "completed"
// so its ranked offers can still be reviewed manually.
func Run(ctx context.Context, s *store.MemStore, driver Driver, campaignID string, ranked []types.SlotOffer) {
	campaign, ok := s.GetCampaign(ctx, campaignID)
	if !ok {
		return
	}

	_ = s.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
		c.Status = types.StatusBooking
	})
	slog.Info("booking: campaign entering booking phase", "campaign_id", campaignID, "candidates", len(ranked))

	attempts := ranked
	if len(attempts) > maxAttempts {
		attempts = attempts[:maxAttempts]
	}

	for idx, offer := range attempts {
		slog.Info("booking: attempt", "campaign_id", campaignID, "attempt", idx+1, "of", len(attempts), "provider_id", offer.ProviderID, "slot_start", offer.Start)

		attemptCtx, cancel := context.WithTimeout(ctx, perAttemptTimeout)
		result, err := driver.Book(attemptCtx, offer, campaign)
		cancel()

		if err != nil {
			if attemptCtx.Err() != nil {
				slog.Warn("booking: attempt timed out", "campaign_id", campaignID, "provider_id", offer.ProviderID, "err", ErrBookingTimeout)
			} else {
				slog.Warn("booking: attempt failed", "campaign_id", campaignID, "provider_id", offer.ProviderID, "err", err)
			}
			continue
		}

		if result.Outcome == types.OutcomeBookingConfirmed {
			confirmation := &types.BookingConfirmation{
				ProviderID:      offer.ProviderID,
				Start:           offer.Start,
				End:             offer.End,
				ConfirmationRef: NewConfirmationRef(),
				ConfirmedAt:     time.Now().UTC(),
				Notes:           result.Notes,
				ClientName:      campaign.Request.ClientName,
				ClientPhone:     campaign.Request.ClientPhone,
			}
			_ = s.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
				c.Status = types.StatusBooked
				c.BookingConfirmation = confirmation
			})
			slog.Info("booking: campaign booked", "campaign_id", campaignID, "provider_id", offer.ProviderID, "confirmation_ref", confirmation.ConfirmationRef)
			return
		}

		slog.Info("booking: rejected, trying next candidate", "campaign_id", campaignID, "provider_id", offer.ProviderID, "err", fmt.Errorf("%w: %s", ErrBookingRejected, offer.ProviderID))
	}

	slog.Warn("booking: all attempts exhausted, falling back to completed", "campaign_id", campaignID, "attempts", len(attempts))
	_ = s.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
		c.Status = types.StatusCompleted
	})
}

// NewConfirmationRef generates a human-readable confirmation code in the
// form CONF-XXXXXXXX.
func NewConfirmationRef() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return "CONF-" + strings.ToUpper(hex.EncodeToString(buf))
}
