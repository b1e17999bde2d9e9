// Package swarm orchestrates a campaign end to end: it discovers providers,
// fans out provider calls behind a concurrency limit, scores and ranks the
// offers that come back, and — when the campaign asked for it — hands the
// ranked offers to the booking subpackage for a confirmation pass.
package swarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/callswarm/internal/call"
	"github.com/MrWong99/callswarm/internal/calendar"
	"github.com/MrWong99/callswarm/internal/config"
	"github.com/MrWong99/callswarm/internal/directory"
	"github.com/MrWong99/callswarm/internal/distance"
	"github.com/MrWong99/callswarm/internal/oauth"
	"github.com/MrWong99/callswarm/internal/scoring"
	"github.com/MrWong99/callswarm/internal/store"
	"github.com/MrWong99/callswarm/internal/swarm/booking"
	"github.com/MrWong99/callswarm/pkg/types"
)

const (
	simulatedCallTimeout = 30 * time.Second
	realCallTimeout      = 5 * time.Minute
)

// Manager owns the collaborators needed to run a campaign from discovery
// through optional booking.
type Manager struct {
	Store     *store.MemStore
	Directory *directory.Directory
	Distance  distance.Estimator
	Calendar  *calendar.Resolver
	Tokens    store.TokenStore

	// Simulated places a deterministic stand-in call; Real places an
	// actual telephony call. DefaultCallMode resolves CallModeAuto when a
	// campaign does not pin a mode explicitly.
	Simulated       call.Driver
	Real            call.Driver
	DefaultCallMode types.CallMode

	Booker booking.Driver

	// tunables holds the server's default SwarmConfig, used to fill in any
	// zero-valued field on an incoming request. Swapped atomically so a
	// config hot-reload takes effect for campaigns started afterward without
	// disturbing ones already running.
	tunables atomic.Pointer[config.SwarmConfig]
}

// SetTunables installs cfg as the defaults applied to future campaigns'
// requests. Safe to call concurrently with RunCampaign.
func (m *Manager) SetTunables(cfg config.SwarmConfig) {
	m.tunables.Store(&cfg)
}

// applyTunableDefaults fills any zero-valued tunable on req from the
// manager's current SwarmConfig, leaving fields the caller set untouched.
func (m *Manager) applyTunableDefaults(req types.AppointmentRequest) types.AppointmentRequest {
	cfg := m.tunables.Load()
	if cfg == nil {
		return req
	}
	if req.MaxProviders == 0 {
		req.MaxProviders = cfg.MaxProviders
	}
	if req.MaxParallel == 0 {
		req.MaxParallel = cfg.MaxParallel
	}
	if req.MaxTravelMinutes == 0 {
		req.MaxTravelMinutes = cfg.MaxTravelMinutes
	}
	if req.Weights == (types.ScoreWeights{}) {
		req.Weights = cfg.Weights
	}
	return req
}

// resolveCallMode resolves a campaign's requested mode into a concrete
// mode: CallModeAuto defers to the server's DefaultCallMode.
func (m *Manager) resolveCallMode(requested types.CallMode) types.CallMode {
	if requested == types.CallModeAuto {
		if m.DefaultCallMode == "" {
			return types.CallModeSimulated
		}
		return m.DefaultCallMode
	}
	return requested
}

// RunCampaign executes campaignID's full discovery and, if requested,
// booking phases. It is meant to be launched in its own goroutine by the
// caller that created the campaign; it reports failures into the campaign's
// own status field rather than returning an error.
func (m *Manager) RunCampaign(ctx context.Context, campaignID string) {
	campaign, ok := m.Store.GetCampaign(ctx, campaignID)
	if !ok {
		slog.Error("swarm: campaign not found", "campaign_id", campaignID)
		return
	}
	req := m.applyTunableDefaults(campaign.Request)

	effectiveMode := m.resolveCallMode(req.CallMode)
	slog.Info("swarm: campaign call mode resolved", "campaign_id", campaignID, "requested", req.CallMode, "effective", effectiveMode)

	providers, err := m.Directory.Resolve(ctx, req.Service, req.Location, req.OriginLat, req.OriginLng, req.ProviderAllowList)
	if err != nil {
		slog.Error("swarm: provider search failed", "campaign_id", campaignID, "err", err)
		_ = m.Store.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
			c.Status = types.StatusFailed
		})
		return
	}
	if len(providers) > req.MaxProviders && req.MaxProviders > 0 {
		providers = providers[:req.MaxProviders]
	}

	if req.MaxTravelMinutes > 0 {
		providers = m.filterByTravel(ctx, req, providers)
	}

	_ = m.Store.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
		c.Providers = providers
		c.Progress = types.CampaignProgress{TotalProviders: len(providers)}
	})

	if len(providers) == 0 {
		_ = m.Store.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
			c.Status = types.StatusCompleted
			c.Debug = map[string]any{"note": "No providers found for this service/location"}
		})
		return
	}

	callResults := m.callProviders(ctx, campaignID, campaign, req.MaxParallel, providers, effectiveMode)

	_ = m.Store.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
		c.CallResults = callResults
	})

	var allOffers []types.SlotOffer
	failed := 0
	for _, r := range callResults {
		switch r.Outcome {
		case types.OutcomeSuccess:
			allOffers = append(allOffers, r.Offers...)
		case types.OutcomeFailed, types.OutcomeNoAnswer, types.OutcomeBusy:
			failed++
		}
	}

	providersByID := make(map[string]types.Provider, len(providers))
	travelByProvider := make(map[string]int, len(providers))
	for _, p := range providers {
		providersByID[p.ID] = p
		travel, err := m.travelMinutes(ctx, req, p)
		if err != nil {
			slog.Warn("swarm: travel estimate failed during ranking", "provider_id", p.ID, "err", err)
			travel = 0
		}
		travelByProvider[p.ID] = travel
	}

	ranked, scoringDebug := scoring.Rank(allOffers, providersByID, travelByProvider, req.Weights, req.DateRangeStart, req.DateRangeEnd)

	var best *types.SlotOffer
	if len(ranked) > 0 {
		best = &ranked[0]
	}

	outcomes := make(map[string]types.CallOutcome, len(callResults))
	for _, r := range callResults {
		outcomes[r.ProviderID] = r.Outcome
	}
	debug := map[string]any{
		"call_mode":         effectiveMode,
		"scoring":           scoringDebug,
		"provider_outcomes": outcomes,
	}

	var status types.CampaignStatus
	switch {
	case len(ranked) == 0 && failed == len(providers):
		status = types.StatusFailed
	case len(ranked) > 0 && req.AutoBook:
		status = types.StatusRunning
	default:
		status = types.StatusCompleted
	}

	_ = m.Store.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
		c.Status = status
		c.Ranked = ranked
		c.Best = best
		c.Debug = debug
	})

	slog.Info("swarm: campaign discovery finished", "campaign_id", campaignID, "offers_ranked", len(ranked), "auto_book", req.AutoBook)

	if len(ranked) > 0 && req.AutoBook {
		booking.Run(ctx, m.Store, m.Booker, campaignID, ranked)
	}
}

// callProviders places one call per provider, bounded by req.MaxParallel,
// and returns the results in completion order. In hybrid mode the first
// provider is always routed to the real driver; every other provider uses
// effectiveMode's driver.
func (m *Manager) callProviders(ctx context.Context, campaignID string, campaign *types.Campaign, maxParallel int, providers []types.Provider, effectiveMode types.CallMode) []types.CallResult {
	if maxParallel <= 0 {
		maxParallel = 1
	}

	tracker := newProgressTracker(len(providers))
	results := make(chan types.CallResult, len(providers))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallel)

	for idx, provider := range providers {
		driver := m.driverFor(effectiveMode, idx)
		eg.Go(func() error {
			tracker.callStarted(egCtx, m.Store, campaignID)
			results <- m.callOneProvider(egCtx, driver, provider, campaign, effectiveMode == types.CallModeReal || (effectiveMode == types.CallModeHybrid && idx == 0))
			tracker.callFinished()
			return nil
		})
	}

	go func() {
		_ = eg.Wait()
		close(results)
	}()

	callResults := make([]types.CallResult, 0, len(providers))
	completed, successful, failed := 0, 0, 0
	for r := range results {
		completed++
		switch r.Outcome {
		case types.OutcomeSuccess:
			successful++
		case types.OutcomeFailed, types.OutcomeNoAnswer, types.OutcomeBusy:
			failed++
		}
		callResults = append(callResults, r)

		completedSoFar, successfulSoFar, failedSoFar := completed, successful, failed
		_ = m.Store.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
			c.CallResults = append([]types.CallResult{}, callResults...)
			c.Progress = types.CampaignProgress{
				TotalProviders: len(providers),
				InProgress:     tracker.current(),
				Completed:      completedSoFar,
				Successful:     successfulSoFar,
				Failed:         failedSoFar,
			}
		})
	}

	return callResults
}

func (m *Manager) driverFor(effectiveMode types.CallMode, idx int) call.Driver {
	if effectiveMode == types.CallModeHybrid && idx == 0 {
		return m.Real
	}
	if effectiveMode == types.CallModeReal {
		return m.Real
	}
	return m.Simulated
}

// callOneProvider runs driver.Call behind a per-call timeout, translating
// timeouts and unexpected errors into a FAILED result rather than
// propagating the error — one bad provider must never abort the campaign.
func (m *Manager) callOneProvider(ctx context.Context, driver call.Driver, provider types.Provider, campaign *types.Campaign, isReal bool) types.CallResult {
	timeout := simulatedCallTimeout
	if isReal {
		timeout = realCallTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := driver.Call(callCtx, provider, campaign)
	if err != nil {
		if callCtx.Err() != nil {
			slog.Warn("swarm: call timed out", "provider_id", provider.ID, "err", ErrCallTimeout)
			return types.CallResult{ProviderID: provider.ID, Outcome: types.OutcomeFailed, Notes: "Call timed out"}
		}
		slog.Error("swarm: call failed", "provider_id", provider.ID, "err", fmt.Errorf("%w: %v", ErrCallError, err))
		return types.CallResult{ProviderID: provider.ID, Outcome: types.OutcomeFailed, Notes: "Unexpected error during call"}
	}
	return result
}

func (m *Manager) filterByTravel(ctx context.Context, req types.AppointmentRequest, providers []types.Provider) []types.Provider {
	filtered := make([]types.Provider, 0, len(providers))
	for _, p := range providers {
		minutes, err := m.travelMinutes(ctx, req, p)
		if err != nil {
			slog.Warn("swarm: travel filter estimate failed, keeping provider", "provider_id", p.ID, "err", err)
			filtered = append(filtered, p)
			continue
		}
		if minutes <= req.MaxTravelMinutes {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func (m *Manager) travelMinutes(ctx context.Context, req types.AppointmentRequest, p types.Provider) (int, error) {
	originLat, originLng := 0.0, 0.0
	if req.OriginLat != nil {
		originLat = *req.OriginLat
	}
	if req.OriginLng != nil {
		originLng = *req.OriginLng
	}
	return m.Distance.TravelMinutes(ctx, originLat, originLng, p.Lat, p.Lng)
}

// SearchProvidersPreview resolves and returns candidate providers for
// service/location without placing any calls, enriched with an estimated
// travel time, so a caller can let a user hand-pick providers before a
// campaign starts.
func (m *Manager) SearchProvidersPreview(ctx context.Context, req types.AppointmentRequest) ([]types.ProviderPreview, error) {
	providers, err := m.Directory.Resolve(ctx, req.Service, req.Location, req.OriginLat, req.OriginLng, nil)
	if err != nil {
		return nil, err
	}
	if req.MaxProviders > 0 && len(providers) > req.MaxProviders {
		providers = providers[:req.MaxProviders]
	}

	previews := make([]types.ProviderPreview, 0, len(providers))
	for _, p := range providers {
		minutes, err := m.travelMinutes(ctx, req, p)
		if err != nil {
			minutes = -1
		}
		previews = append(previews, types.ProviderPreview{Provider: p, TravelMinutes: minutes})
	}
	return previews, nil
}

// ConfirmSlot lets a caller manually confirm one of a campaign's ranked
// offers outside the autonomous booking phase, re-validating the slot
// against the resolved calendar before committing.
func (m *Manager) ConfirmSlot(ctx context.Context, campaignID, providerID string, start time.Time) (*types.BookingConfirmation, error) {
	campaign, ok := m.Store.GetCampaign(ctx, campaignID)
	if !ok {
		return nil, ErrCampaignNotFound
	}

	var match *types.SlotOffer
	for i := range campaign.Ranked {
		if campaign.Ranked[i].ProviderID == providerID && campaign.Ranked[i].Start.Equal(start) {
			match = &campaign.Ranked[i]
			break
		}
	}
	if match == nil {
		return nil, ErrSlotNotInRanked
	}

	engine := oauth.ResolveEngine(m.Calendar, m.Tokens, campaign.Request.UserID)
	free, err := engine.IsFree(ctx, match.Start, match.End)
	switch {
	case errors.Is(err, calendar.ErrUnavailable):
		return nil, ErrCalendarUnavailable
	case err != nil:
		return nil, fmt.Errorf("swarm: confirm slot: %w", err)
	case !free:
		return nil, ErrSlotConflict
	}

	confirmation := &types.BookingConfirmation{
		ProviderID:      match.ProviderID,
		Start:           match.Start,
		End:             match.End,
		ConfirmationRef: booking.NewConfirmationRef(),
		ConfirmedAt:     time.Now().UTC(),
		ClientName:      campaign.Request.ClientName,
		ClientPhone:     campaign.Request.ClientPhone,
	}

	err = m.Store.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
		c.BookingConfirmation = confirmation
	})
	if err != nil {
		return nil, fmt.Errorf("swarm: confirm slot: %w", err)
	}
	return confirmation, nil
}
