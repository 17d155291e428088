// Package pipeline runs forwarded incidents to completion: mark PROCESSING,
// gather context, archive it, decide, mark COMPLETED. A panicking step marks
// the incident FAILED and sends a critical escalation instead.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/warden/internal/alarm"
	"github.com/linnemanlabs/warden/internal/archive"
	"github.com/linnemanlabs/warden/internal/bus"
	"github.com/linnemanlabs/warden/internal/incident"
	"github.com/linnemanlabs/warden/internal/notify"
)

// Gatherer assembles the investigation context for an alarm.
type Gatherer interface {
	Gather(ctx context.Context, ev *alarm.Event) *incident.Context
}

// Decider produces a decision for an incident. Implementations never fail;
// they degrade internally instead.
type Decider interface {
	Decide(ctx context.Context, incidentKey string, ictx *incident.Context) *incident.DecisionResult
}

// Runner drives a forwarded incident through the processing stages.
type Runner struct {
	tracker  *incident.Tracker
	gatherer Gatherer
	decider  Decider
	archiver archive.Archiver
	notifier notify.Notifier
	metrics  *Metrics
	logger   log.Logger
}

// NewRunner creates a Runner. archiver and notifier may be the package Noops;
// metrics may be nil.
func NewRunner(
	tracker *incident.Tracker,
	gatherer Gatherer,
	decider Decider,
	archiver archive.Archiver,
	notifier notify.Notifier,
	metrics *Metrics,
	logger log.Logger,
) *Runner {
	if logger == nil {
		logger = log.Nop()
	}
	if archiver == nil {
		archiver = archive.Noop{}
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Runner{
		tracker:  tracker,
		gatherer: gatherer,
		decider:  decider,
		archiver: archiver,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Handle processes one forwarded incident. It satisfies bus.Handler. Once
// entered, the run goes to a terminal status: COMPLETED on any decision
// (fallback included), FAILED only when a stage panics.
func (r *Runner) Handle(ctx context.Context, fe *bus.ForwardedEvent) {
	runID := ulid.Make().String()
	key := fe.IncidentKey
	start := time.Now()

	ctx = log.WithContext(ctx, r.logger)
	r.logger.Info(ctx, "incident run started",
		"run_id", runID,
		"incident_key", key,
		"alarm_name", fe.Event.AlarmName,
	)

	status := incident.StatusFailed
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("incident run panic: %v", p)
			r.logger.Error(ctx, err, "incident run failed",
				"run_id", runID,
				"incident_key", key,
			)
			r.fail(ctx, key, err)
		}
		r.observeRun(status, time.Since(start))
	}()

	r.tracker.Set(ctx, key, incident.StatusProcessing, nil)

	ictx := r.gatherer.Gather(ctx, &fe.Event)
	r.archiveContext(ctx, key, ictx)

	res := r.decider.Decide(ctx, key, ictx)

	payload, err := json.Marshal(res)
	if err != nil {
		// DecisionResult is a plain struct; this cannot realistically fail.
		payload = nil
	}
	r.tracker.Set(ctx, key, incident.StatusCompleted, payload)
	status = incident.StatusCompleted

	r.escalate(ctx, key, res)

	r.logger.Info(ctx, "incident run completed",
		"run_id", runID,
		"incident_key", key,
		"decision_source", string(res.Source),
		"action", res.Action,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (r *Runner) archiveContext(ctx context.Context, key string, ictx *incident.Context) {
	body, err := json.Marshal(ictx)
	if err != nil {
		r.logger.Warn(ctx, "context marshal failed, skipping archive",
			"incident_key", key,
			"error", err,
		)
		return
	}
	objectKey := fmt.Sprintf("incidents/%s/context.json", key)
	if err := r.archiver.Put(ctx, objectKey, body); err != nil {
		r.logger.Warn(ctx, "context archive failed, continuing",
			"incident_key", key,
			"object_key", objectKey,
			"error", err,
		)
	}
}

// escalate sends the human notification a decision calls for, if any.
// Fallback decisions always escalate at medium; low-confidence agent
// decisions escalate at high.
func (r *Runner) escalate(ctx context.Context, key string, res *incident.DecisionResult) {
	if !res.HumanNotified {
		return
	}

	sev := notify.SeverityMedium
	subject := "Incident Needs Review"
	if res.Source == incident.SourceAgent {
		sev = notify.SeverityHigh
		subject = "Low-Confidence Incident Analysis"
	}

	msg := fmt.Sprintf("Incident %s\nAction: %s\nConfidence: %.2f\n\n%s",
		key, res.Action, res.Confidence, res.Rationale)
	r.sendNotification(ctx, subject, msg, sev)
}

func (r *Runner) fail(ctx context.Context, key string, runErr error) {
	payload, _ := json.Marshal(map[string]string{"error": runErr.Error()})
	r.tracker.Set(ctx, key, incident.StatusFailed, payload)

	msg := fmt.Sprintf("Incident %s failed during processing.\n\n%s", key, runErr)
	r.sendNotification(ctx, "Incident Processing Failed", msg, notify.SeverityCritical)
}

func (r *Runner) sendNotification(ctx context.Context, subject, msg string, sev notify.Severity) {
	if err := r.notifier.Notify(ctx, subject, msg, sev); err != nil {
		r.logger.Warn(ctx, "escalation delivery failed",
			"subject", subject,
			"severity", string(sev),
			"error", err,
		)
		return
	}
	if r.metrics != nil {
		r.metrics.Notifications.WithLabelValues(string(sev)).Inc()
	}
}

func (r *Runner) observeRun(status incident.Status, d time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.RunsTotal.WithLabelValues(string(status)).Inc()
	r.metrics.RunDuration.WithLabelValues(string(status)).Observe(d.Seconds())
}
