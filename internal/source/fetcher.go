// Package source defines the acquisition boundary: fetchers that turn an
// entity reference into one provider's raw metric report. The orchestrator
// treats fetchers as opaque beyond success or failure.
package source

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/consensus-engine/internal/model"
)

// EntityRef identifies the entity a fetcher should look up.
type EntityRef struct {
	EntityID string
	Name     string
	Kind     model.EntityKind
	Ticker   string
}

// Fetcher retrieves one provider category's metric report for an entity.
type Fetcher interface {
	// Key returns the provider category identifier, which keys the merged
	// per-source map and the trust table.
	Key() string
	// Fetch returns the provider's report. It must honor ctx cancellation;
	// any error counts as a failed source, never a failed request.
	Fetch(ctx context.Context, ref EntityRef) (model.SourceReport, error)
}

// Registry holds the configured set of fetchers for the live path.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRegistry creates an empty fetcher registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]Fetcher)}
}

// Register adds or replaces a fetcher under its key.
func (r *Registry) Register(f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[f.Key()] = f
}

// Get returns the fetcher for a provider category, or nil.
func (r *Registry) Get(key string) Fetcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fetchers[key]
}

// All returns every registered fetcher in stable key order.
func (r *Registry) All() []Fetcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.fetchers))
	for k := range r.fetchers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Fetcher, len(keys))
	for i, k := range keys {
		out[i] = r.fetchers[k]
	}
	return out
}
