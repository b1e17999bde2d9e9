package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MrWong99/callswarm/pkg/types"
)

// ErrNotFound is returned by a Persister's Load method when no document
// exists for the requested key.
var ErrNotFound = errors.New("store: not found")

// Persister durably mirrors campaign documents, keyed by campaign ID.
// Implementations need not be transactional with MemStore; campaigns are
// re-persisted wholesale on every update.
type Persister interface {
	Save(ctx context.Context, campaign *types.Campaign) error
	Load(ctx context.Context, campaignID string) (*types.Campaign, error)

	// LoadAll returns every persisted campaign, used to repopulate the store
	// on startup.
	LoadAll(ctx context.Context) ([]*types.Campaign, error)
}

// JSONFilePersister writes one JSON document per campaign into a directory,
// the same local-file approach the feedback store uses for the alpha
// deployment, adapted here to a keyed document instead of an append log.
type JSONFilePersister struct {
	mu  sync.Mutex
	dir string
}

// NewJSONFilePersister returns a Persister that writes into dir, creating
// it if it does not exist.
func NewJSONFilePersister(dir string) (*JSONFilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create campaign dir: %w", err)
	}
	return &JSONFilePersister{dir: dir}, nil
}

var _ Persister = (*JSONFilePersister)(nil)

func (p *JSONFilePersister) pathFor(campaignID string) string {
	return filepath.Join(p.dir, campaignID+".json")
}

// Save implements Persister.
func (p *JSONFilePersister) Save(_ context.Context, campaign *types.Campaign) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.MarshalIndent(campaign, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal campaign %q: %w", campaign.CampaignID, err)
	}

	tmp := p.pathFor(campaign.CampaignID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write campaign %q: %w", campaign.CampaignID, err)
	}
	if err := os.Rename(tmp, p.pathFor(campaign.CampaignID)); err != nil {
		return fmt.Errorf("store: finalize campaign %q: %w", campaign.CampaignID, err)
	}
	return nil
}

// Load implements Persister.
func (p *JSONFilePersister) Load(_ context.Context, campaignID string) (*types.Campaign, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.pathFor(campaignID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: read campaign %q: %w", campaignID, err)
	}

	var campaign types.Campaign
	if err := json.Unmarshal(data, &campaign); err != nil {
		return nil, fmt.Errorf("store: decode campaign %q: %w", campaignID, err)
	}
	return &campaign, nil
}

// LoadAll implements Persister, reading every campaign document in the
// directory.
func (p *JSONFilePersister) LoadAll(_ context.Context) ([]*types.Campaign, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("store: list campaign dir: %w", err)
	}

	var campaigns []*types.Campaign
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(p.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("store: read campaign file %q: %w", entry.Name(), err)
		}
		var campaign types.Campaign
		if err := json.Unmarshal(data, &campaign); err != nil {
			return nil, fmt.Errorf("store: decode campaign file %q: %w", entry.Name(), err)
		}
		campaigns = append(campaigns, &campaign)
	}
	return campaigns, nil
}
