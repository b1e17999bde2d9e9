package swarm

import (
	"context"
	"sync"

	"github.com/MrWong99/callswarm/internal/store"
	"github.com/MrWong99/callswarm/pkg/types"
)

// progressTracker counts calls currently in flight for one campaign and
// mirrors that count into the store alongside whatever completed/successful/
// failed counters are already recorded there.
type progressTracker struct {
	mu         sync.Mutex
	inProgress int
	total      int
}

func newProgressTracker(total int) *progressTracker {
	return &progressTracker{total: total}
}

func (t *progressTracker) callStarted(ctx context.Context, s *store.MemStore, campaignID string) {
	t.mu.Lock()
	t.inProgress++
	count := t.inProgress
	t.mu.Unlock()

	_ = s.UpdateCampaign(ctx, campaignID, func(c *types.Campaign) {
		c.Progress = types.CampaignProgress{
			TotalProviders: t.total,
			InProgress:     count,
			Completed:      c.Progress.Completed,
			Successful:     c.Progress.Successful,
			Failed:         c.Progress.Failed,
		}
	})
}

func (t *progressTracker) callFinished() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inProgress > 0 {
		t.inProgress--
	}
}

func (t *progressTracker) current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inProgress
}
