// Package directory resolves candidate providers for a campaign's service
// and location, either from the bundled demo dataset or a real places
// search backend, and remembers every provider it has ever returned so a
// campaign can re-resolve them by ID without a fresh search.
package directory

import (
	"context"
	"strings"
	"sync"

	"github.com/MrWong99/callswarm/pkg/types"
)

// Searcher finds providers offering service near location.
type Searcher interface {
	Search(ctx context.Context, service, location string, originLat, originLng *float64) ([]types.Provider, error)
}

// IDCache remembers every provider a Searcher has returned, keyed by
// provider ID, so campaigns can resolve an allow-list of IDs without
// re-searching.
type IDCache struct {
	mu        sync.RWMutex
	providers map[string]types.Provider
}

// NewIDCache returns an empty IDCache.
func NewIDCache() *IDCache {
	return &IDCache{providers: make(map[string]types.Provider)}
}

// Remember stores providers in the cache, overwriting any existing entries
// with the same ID.
func (c *IDCache) Remember(providers []types.Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range providers {
		c.providers[p.ID] = p
	}
}

// Lookup returns the providers for ids, in order. It returns ok=false if any
// ID is missing from the cache, signalling the caller should search fresh
// instead of returning a partial result.
func (c *IDCache) Lookup(ids []string) (providers []types.Provider, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.Provider, 0, len(ids))
	for _, id := range ids {
		p, found := c.providers[id]
		if !found {
			return nil, false
		}
		out = append(out, p)
	}
	return out, true
}

// Directory resolves providers for a campaign, consulting the allow-list
// cache first and falling back to a fresh Searcher call.
type Directory struct {
	searcher Searcher
	cache    *IDCache
}


// Resolve returns providers for service/location. If allowIDs is non-empty
// and every ID is already cached, the cached providers are returned without
// calling the searcher.
func (d *Directory) Resolve(ctx context.Context, service, location string, originLat, originLng *float64, allowIDs []string) ([]types.Provider, error) {
	if len(allowIDs) > 0 {
		if cached, ok := d.cache.Lookup(allowIDs); ok {
			return cached, nil
		}
	}

	results, err := d.searcher.Search(ctx, service, location, originLat, originLng)
	if err != nil {
		return nil, err
	}
	d.cache.Remember(results)

	if len(allowIDs) == 0 {
		return results, nil
	}

	allow := make(map[string]bool, len(allowIDs))
	for _, id := range allowIDs {
		allow[id] = true
	}
	filtered := make([]types.Provider, 0, len(results))
	for _, p := range results {
		if allow[p.ID] {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// matchesService reports whether any of a provider's services mentions
// service, case-insensitively.
func matchesService(services []string, service string) bool {
	service = strings.ToLower(service)
	for _, s := range services {
		if strings.Contains(strings.ToLower(s), service) {
			return true
		}
	}
	return false
}
