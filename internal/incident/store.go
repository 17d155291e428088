package incident

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the persistence contract for incident identity and lifecycle.
// Sightings and the canonical record share an incident key; implementations
// may keep them in one table (sentinel sort key) or two.
type Store interface {
	// SeenSince reports whether any sighting of key exists at or after since.
	// Existence-only: implementations should stop at the first match.
	SeenSince(ctx context.Context, key string, since time.Time) (bool, error)

	// RecordSighting inserts a history record for an accepted firing.
	RecordSighting(ctx context.Context, rec *Record) error

	// SetStatus overwrites the canonical record for key. Last-writer-wins,
	// idempotent: repeating a write leaves the same state behind.
	SetStatus(ctx context.Context, key string, status Status, payload json.RawMessage) error

	// GetCanonical returns the canonical record for key, if one exists.
	GetCanonical(ctx context.Context, key string) (*Record, bool, error)
}
