package call

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrWong99/callswarm/internal/calendar"
	"github.com/MrWong99/callswarm/internal/oauth"
	"github.com/MrWong99/callswarm/internal/store"
	"github.com/MrWong99/callswarm/pkg/types"
)

// SimulatedDriver is a deterministic stand-in receptionist, seeded from the
// provider's ID so demo runs and tests are reproducible without placing a
// real call.
type SimulatedDriver struct {
	Calendar        *calendar.Resolver
	Tokens          store.TokenStore
	DefaultTimezone string
}

// Call implements Driver.
func (d *SimulatedDriver) Call(ctx context.Context, provider types.Provider, campaign *types.Campaign) (types.CallResult, error) {
	req := campaign.Request
	seed := seedFor(provider.ID)

	// ~20% chance of a dead-end outcome, matching the reference receptionist's
	// no-answer / no-availability rate.
	switch seed % 10 {
	case 0:
		if err := ctxSleep(ctx, time.Duration(8000+int(seed%5)*1000)*time.Millisecond); err != nil {
			return types.CallResult{}, err
		}
		return types.CallResult{ProviderID: provider.ID, Outcome: types.OutcomeNoAnswer, Notes: "Simulated: no answer"}, nil
	case 1:
		if err := ctxSleep(ctx, time.Duration(6000+int(seed%4)*1000)*time.Millisecond); err != nil {
			return types.CallResult{}, err
		}
		return types.CallResult{ProviderID: provider.ID, Outcome: types.OutcomeNoSlots, Notes: "Simulated: receptionist said no availability"}, nil
	}

	loc := resolveLocation(req.Timezone, d.DefaultTimezone)
	engine := oauth.ResolveEngine(d.Calendar, d.Tokens, req.UserID)

	baseDate := req.DateRangeStart.In(loc)
	baseDate = time.Date(baseDate.Year(), baseDate.Month(), baseDate.Day(), 9, 0, 0, 0, loc)

	var offers []types.SlotOffer
	for i := 0; i < 3; i++ {
		offsetHours := int((seed >> (i * 4)) % 8)
		start := baseDate.AddDate(0, 0, i).Add(time.Duration(offsetHours) * time.Hour)
		end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)
		if start.Before(req.DateRangeStart) || end.After(req.DateRangeEnd) {
			continue
		}

		free, err := engine.IsFree(ctx, start, end)
		if err != nil {
			if errors.Is(err, calendar.ErrUnavailable) {
				slog.Warn("call: calendar unavailable, skipping candidate slot", "provider_id", provider.ID)
				continue
			}
			return types.CallResult{}, err
		}
		if !free {
			start = start.Add(time.Hour)
			end = end.Add(time.Hour)
			if start.Before(req.DateRangeStart) || end.After(req.DateRangeEnd) {
				continue
			}
			free, err = engine.IsFree(ctx, start, end)
			if err != nil {
				if errors.Is(err, calendar.ErrUnavailable) {
					slog.Warn("call: calendar unavailable, skipping shifted slot", "provider_id", provider.ID)
					continue
				}
				return types.CallResult{}, err
			}
			if !free {
				continue
			}
		}

		offers = append(offers, types.SlotOffer{
			ProviderID: provider.ID,
			Start:      start,
			End:        end,
			Notes:      fmt.Sprintf("Simulated offer from %s", provider.Name),
			Confidence: 0.9 - float64(i)*0.1,
		})
		if len(offers) >= 2 {
			break
		}
	}

	if err := ctxSleep(ctx, time.Duration(6000+int(seed%6)*1600)*time.Millisecond); err != nil {
		return types.CallResult{}, err
	}

	if len(offers) > 0 {
		return types.CallResult{
			ProviderID:        provider.ID,
			Outcome:           types.OutcomeSuccess,
			Offers:            offers,
			TranscriptSnippet: fmt.Sprintf("Simulated call with %s; offered %d slot(s).", provider.Name, len(offers)),
			Notes:             "simulated",
		}, nil
	}
	return types.CallResult{
		ProviderID: provider.ID,
		Outcome:    types.OutcomeCompletedNoMatch,
		Notes:      "Simulated: all candidate slots conflicted with calendar",
	}, nil
}

// seedFor derives a stable 64-bit seed from providerID, so runs are
// reproducible across restarts. The seed is the first 8 bytes of the
// SHA-256 digest read big-endian; the remaining 24 bytes are not used.
func seedFor(providerID string) uint64 {
	sum := sha256.Sum256([]byte(providerID))
	return binary.BigEndian.Uint64(sum[:8])
}

func resolveLocation(names ...string) *time.Location {
	for _, name := range names {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
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
