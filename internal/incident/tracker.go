package incident

import (
	"context"
	"encoding/json"

	"github.com/linnemanlabs/go-core/log"
)

// Tracker is the sole writer of canonical incident status. Persist failures
// are logged and counted but never fail the caller: status is observability,
// not state the pipeline depends on mid-run.
type Tracker struct {
	store  Store
	logger log.Logger

	// OnWriteError is an optional hook for a metrics counter.
	OnWriteError func()
}

// NewTracker creates a lifecycle tracker over the given store.
func NewTracker(store Store, logger log.Logger) *Tracker {
	if logger == nil {
		logger = log.Nop()
	}
	return &Tracker{store: store, logger: logger}
}

// Set transitions the canonical record of key to status, attaching payload
// (a DecisionResult or error detail) on terminal states.
func (t *Tracker) Set(ctx context.Context, key string, status Status, payload json.RawMessage) {
	if err := t.store.SetStatus(ctx, key, status, payload); err != nil {
		t.logger.Error(ctx, err, "status update failed",
			"incident_key", key,
			"status", string(status),
		)
		if t.OnWriteError != nil {
			t.OnWriteError()
		}
		return
	}
	t.logger.Info(ctx, "incident status updated",
		"incident_key", key,
		"status", string(status),
	)
}
