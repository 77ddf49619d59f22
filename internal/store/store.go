// Package store persists consensus snapshots and delta audit rows. All
// operations are best-effort from the orchestrator's point of view: a store
// failure is logged, never surfaced as a request failure.
package store

import (
	"context"

	"github.com/sells-group/consensus-engine/internal/model"
)

// Store is the durable persistence interface.
type Store interface {
	// ReadLatest returns the most recently observed consensus snapshot for
	// an entity, or nil when none exists.
	ReadLatest(ctx context.Context, entityID string) (*model.EntityConsensus, error)

	// Upsert writes a snapshot keyed by (entity id, fiscal period),
	// replacing any previous snapshot for the same key.
	Upsert(ctx context.Context, ec *model.EntityConsensus) error

	// InsertDeltaRecords appends change audit rows.
	InsertDeltaRecords(ctx context.Context, records []model.DeltaRecord) error

	// ListDeltaRecords returns the most recent audit rows for an entity.
	ListDeltaRecords(ctx context.Context, entityID string, limit int) ([]model.DeltaRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
