// Package bus defines the forwarding boundary between the deduplicator and
// the incident pipeline. Delivery is at-least-once with no ordering
// guarantee, including within one incident key.
package bus

import (
	"context"
	"time"

	"github.com/linnemanlabs/warden/internal/alarm"
)

// ForwardedEvent is what the deduplicator emits for each accepted firing.
type ForwardedEvent struct {
	IncidentKey string      `json:"incidentKey"`
	Event       alarm.Event `json:"originalEvent"`
	ProcessedAt time.Time   `json:"processedAt"`
}

// Forwarder publishes forwarded events toward the pipeline.
type Forwarder interface {
	Forward(ctx context.Context, fwd *ForwardedEvent) error
}

// Handler consumes forwarded events. Implemented by the pipeline runner.
type Handler func(ctx context.Context, fwd *ForwardedEvent)
