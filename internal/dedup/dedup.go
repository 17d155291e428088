// Package dedup decides whether an alarm firing is a repeat of an incident
// already seen inside the sliding window, and forwards genuinely new ones.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/warden/internal/alarm"
	"github.com/linnemanlabs/warden/internal/bus"
	"github.com/linnemanlabs/warden/internal/incident"
)

// DefaultWindow suppresses repeats for 15 minutes.
const DefaultWindow = 15 * time.Minute

// Action is the outcome of processing one alarm event.
type Action string

const (
	// ActionForwarded means the event was recorded and sent downstream
	ActionForwarded Action = "forwarded"

	// ActionIgnored means a sighting inside the window already exists
	ActionIgnored Action = "ignored"
)

// Outcome reports what happened to an event and under which identity.
type Outcome struct {
	Action      Action `json:"action"`
	IncidentKey string `json:"incidentKey"`
}

// Hooks lets the caller observe dedup results without a metrics dependency.
type Hooks struct {
	OnResult   func(action Action)
	OnDegraded func()
}

// Deduplicator owns the duplicate check and the record-before-forward step.
type Deduplicator struct {
	store     incident.Store
	tracker   *incident.Tracker
	forwarder bus.Forwarder
	window    time.Duration
	logger    log.Logger
	hooks     Hooks

	// now is swappable in tests
	now func() time.Time
}

// New creates a deduplicator. A zero window falls back to DefaultWindow.
func New(store incident.Store, tracker *incident.Tracker, forwarder bus.Forwarder, window time.Duration, logger log.Logger, hooks Hooks) *Deduplicator {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Deduplicator{
		store:     store,
		tracker:   tracker,
		forwarder: forwarder,
		window:    window,
		logger:    logger,
		hooks:     hooks,
		now:       time.Now,
	}
}

// Process classifies one alarm event. Duplicates are dropped; new incidents
// are recorded first and forwarded second, so a retry after a forward
// failure is recognized by the just-written sighting instead of being
// processed twice.
//
// Two firings of the same key racing through the check before either records
// can both forward; that is accepted and bounded by the window, the store is
// not used for mutual exclusion.
func (d *Deduplicator) Process(ctx context.Context, ev *alarm.Event) (*Outcome, error) {
	key := ev.IncidentKey()
	now := d.now()

	L := d.logger.With("incident_key", key, "alarm", ev.AlarmName)

	seen, err := d.store.SeenSince(ctx, key, now.Add(-d.window))
	if err != nil {
		// Fail open: an unavailable store must never silently drop an
		// incident. The degraded mode is loud on purpose.
		L.Error(ctx, err, "duplicate check failed, treating as new (degraded mode)")
		if d.hooks.OnDegraded != nil {
			d.hooks.OnDegraded()
		}
		seen = false
	}

	if seen {
		L.Info(ctx, "duplicate incident ignored", "window", d.window.String())
		d.observe(ActionIgnored)
		return &Outcome{Action: ActionIgnored, IncidentKey: key}, nil
	}

	if err := d.store.RecordSighting(ctx, incident.NewSighting(key, ev, now)); err != nil {
		return nil, fmt.Errorf("record sighting: %w", err)
	}

	// Sentinel status for the new incident epoch. Best-effort: the tracker
	// logs failures, and the pipeline overwrites it with processing anyway.
	d.tracker.Set(ctx, key, incident.StatusNew, nil)

	fwd := &bus.ForwardedEvent{
		IncidentKey: key,
		Event:       *ev,
		ProcessedAt: now.UTC(),
	}
	if err := d.forwarder.Forward(ctx, fwd); err != nil {
		// The sighting is already durable; redelivery of the same raw event
		// will now classify as duplicate. Accepted tradeoff over
		// double-processing.
		return nil, fmt.Errorf("forward incident: %w", err)
	}

	L.Info(ctx, "new incident forwarded")
	d.observe(ActionForwarded)
	return &Outcome{Action: ActionForwarded, IncidentKey: key}, nil
}

func (d *Deduplicator) observe(a Action) {
	if d.hooks.OnResult != nil {
		d.hooks.OnResult(a)
	}
}
