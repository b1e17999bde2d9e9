// Package store holds campaign state and call-completion bookkeeping for
// running campaigns, plus the persistence interfaces used to durably save
// that state across process restarts.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/callswarm/pkg/types"
)

// MemStore is a thread-safe in-memory home for campaigns and in-flight call
// mappings. It is the source of truth while a campaign runs; a Persister
// optionally mirrors campaigns to durable storage for later retrieval.
type MemStore struct {
	mu        sync.Mutex
	campaigns map[string]*types.Campaign
	calls     map[string]*CallMapping

	persister Persister
}

// New returns an empty MemStore. persister may be nil, in which case
// campaigns live only in memory for the life of the process.
func New(persister Persister) *MemStore {
	return &MemStore{
		campaigns: make(map[string]*types.Campaign),
		calls:     make(map[string]*CallMapping),
		persister: persister,
	}
}

// CreateCampaign registers a new campaign for request and returns it.
func (s *MemStore) CreateCampaign(ctx context.Context, request types.AppointmentRequest) (*types.Campaign, error) {
	now := time.Now().UTC()
	campaign := &types.Campaign{
		CampaignID: uuid.New().String()[:12],
		Request:    request,
		Status:     types.StatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.campaigns[campaign.CampaignID] = campaign
	s.mu.Unlock()

	if err := s.persist(ctx, campaign); err != nil {
		return campaign, fmt.Errorf("store: persist new campaign: %w", err)
	}
	return campaign, nil
}

// GetCampaign returns the campaign with the given ID, or ok=false if none
// exists in memory.
func (s *MemStore) GetCampaign(_ context.Context, campaignID string) (*types.Campaign, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	return c, ok
}

// UpdateCampaign applies mutate to the campaign identified by campaignID
// under the store's lock, stamps UpdatedAt, and persists the result.
// It is a no-op if the campaign does not exist.
func (s *MemStore) UpdateCampaign(ctx context.Context, campaignID string, mutate func(*types.Campaign)) error {
	s.mu.Lock()
	campaign, ok := s.campaigns[campaignID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	mutate(campaign)
	campaign.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	if err := s.persist(ctx, campaign); err != nil {
		return fmt.Errorf("store: persist campaign %q: %w", campaignID, err)
	}
	return nil
}

// Reload repopulates the store from the persister, downgrading any campaign
// left in running or booking status to failed: those are in-flight states
// that cannot have survived a process restart cleanly. It is a no-op if no
// persister is configured.
func (s *MemStore) Reload(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	campaigns, err := s.persister.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("store: reload: %w", err)
	}

	s.mu.Lock()
	for _, campaign := range campaigns {
		if campaign.Status == types.StatusRunning || campaign.Status == types.StatusBooking {
			campaign.Status = types.StatusFailed
			campaign.UpdatedAt = time.Now().UTC()
		}
		s.campaigns[campaign.CampaignID] = campaign
	}
	s.mu.Unlock()

	for _, campaign := range campaigns {
		if campaign.Status != types.StatusFailed {
			continue
		}
		if err := s.persister.Save(ctx, campaign); err != nil {
			return fmt.Errorf("store: reload: persist downgraded campaign %q: %w", campaign.CampaignID, err)
		}
	}
	return nil
}

func (s *MemStore) persist(ctx context.Context, campaign *types.Campaign) error {
	if s.persister == nil {
		return nil
	}
	snapshot := *campaign
	return s.persister.Save(ctx, &snapshot)
}

// CallMapping ties a provider call's external call ID back to its campaign
// context, and lets callers block until the call's result is recorded.
type CallMapping struct {
	CallID     string
	CampaignID string
	ProviderID string
	StreamID   string
	StartedAt  time.Time

	mu     sync.Mutex
	done   chan struct{}
	result *types.CallResult
}

func newCallMapping(callID, campaignID, providerID string) *CallMapping {
	return &CallMapping{
		CallID:     callID,
		CampaignID: campaignID,
		ProviderID: providerID,
		StartedAt:  time.Now().UTC(),
		done:       make(chan struct{}),
	}
}

// Wait blocks until the call completes or ctx is done, whichever comes
// first, returning the recorded result.
func (c *CallMapping) Wait(ctx context.Context) (*types.CallResult, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RegisterCall creates and stores a CallMapping for a newly placed call.
func (s *MemStore) RegisterCall(callID, campaignID, providerID string) *CallMapping {
	mapping := newCallMapping(callID, campaignID, providerID)
	s.mu.Lock()
	s.calls[callID] = mapping
	s.mu.Unlock()
	return mapping
}

// GetCall returns the mapping for callID, or ok=false if no call with that
// ID is registered.
func (s *MemStore) GetCall(callID string) (*CallMapping, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.calls[callID]
	return m, ok
}

// CompleteCall records result against the call mapping for callID and wakes
// any goroutine blocked in CallMapping.Wait. It is a no-op if callID is not
// registered, which happens for simulated calls that never go through the
// telephony bridge.
func (s *MemStore) CompleteCall(callID string, result types.CallResult) {
	s.mu.Lock()
	mapping, ok := s.calls[callID]
	s.mu.Unlock()
	if !ok {
		return
	}

	mapping.mu.Lock()
	defer mapping.mu.Unlock()
	select {
	case <-mapping.done:
		// already completed; ignore duplicate status callbacks
	default:
		mapping.result = &result
		close(mapping.done)
	}
}
