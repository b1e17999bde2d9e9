package directory

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MrWong99/callswarm/pkg/types"
)

//go:embed demo.json
var demoData []byte

// DemoSearcher serves providers from the bundled demo dataset, filtered by
// a case-insensitive substring match against each provider's services.
// Location is accepted for interface parity but does not filter the demo
// set, which is small enough to return in full.
type DemoSearcher struct {
	once      sync.Once
	loadErr   error
	providers []types.Provider
}

// NewDemoSearcher returns a ready-to-use DemoSearcher.
func NewDemoSearcher() *DemoSearcher { return &DemoSearcher{} }

var _ Searcher = (*DemoSearcher)(nil)

func (d *DemoSearcher) load() {
	d.once.Do(func() {
		if err := json.Unmarshal(demoData, &d.providers); err != nil {
			d.loadErr = fmt.Errorf("directory: decode demo dataset: %w", err)
		}
	})
}

// Search implements Searcher.
func (d *DemoSearcher) Search(_ context.Context, service, _ string, _, _ *float64) ([]types.Provider, error) {
	d.load()
	if d.loadErr != nil {
		return nil, d.loadErr
	}

	var matched []types.Provider
	for _, p := range d.providers {
		if matchesService(p.Services, service) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}
