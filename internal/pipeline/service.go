package pipeline

import (
	"context"

	"github.com/linnemanlabs/warden/internal/alarm"
	"github.com/linnemanlabs/warden/internal/dedup"
	"github.com/linnemanlabs/warden/internal/incident"
)

// Service is the ingest-facing surface of the pipeline: submit an alarm,
// look up an incident.
type Service struct {
	dedup *dedup.Deduplicator
	store incident.Store
}

// NewService creates a Service.
func NewService(d *dedup.Deduplicator, store incident.Store) *Service {
	return &Service{dedup: d, store: store}
}

// Submit runs an alarm event through deduplication. A forwarded outcome means
// the incident entered the processing pipeline; an ignored one means it was a
// duplicate within the window.
func (s *Service) Submit(ctx context.Context, ev *alarm.Event) (*dedup.Outcome, error) {
	return s.dedup.Process(ctx, ev)
}

// Get returns the canonical record for an incident key.
func (s *Service) Get(ctx context.Context, key string) (*incident.Record, bool, error) {
	return s.store.GetCanonical(ctx, key)
}
