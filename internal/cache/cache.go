// Package cache holds the short-TTL, entity-keyed store of the last built
// consensus. It is an optimization, not a correctness-bearing store: on a
// race between two requests for the same entity, last write wins.
package cache

import (
	"sync"
	"time"

	"github.com/sells-group/consensus-engine/internal/model"
)

// ResultCache is the injected cache abstraction the orchestrator consults
// before doing any live acquisition.
type ResultCache interface {
	Get(entityID string, now time.Time) (*model.EntityConsensus, bool)
	Set(entityID string, ec *model.EntityConsensus, ttl time.Duration, now time.Time)
	Expire(entityID string)
}

type entry struct {
	consensus *model.EntityConsensus
	expiresAt time.Time
}

// Memory is a process-local ResultCache. Deployments spanning multiple
// processes must treat it as per-process unless backed by a shared store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

// Get returns the cached consensus for an entity if present and unexpired.
func (m *Memory) Get(entityID string, now time.Time) (*model.EntityConsensus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[entityID]
	if !ok || now.After(e.expiresAt) {
		return nil, false
	}
	return e.consensus, true
}

// Set stores a consensus with its own cache expiry.
func (m *Memory) Set(entityID string, ec *model.EntityConsensus, ttl time.Duration, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entityID] = entry{consensus: ec, expiresAt: now.Add(ttl)}
}

// Expire drops an entity's cached entry.
func (m *Memory) Expire(entityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, entityID)
}
