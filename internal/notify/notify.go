// Package notify defines the escalation surface: when an incident fails or a
// decision needs human eyes, a Notifier carries the message out.
package notify

import (
	"context"

	"github.com/linnemanlabs/go-core/log"
)

// Severity grades an escalation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Notifier delivers an escalation message. Implementations are side-effect
// only; delivery results are never read back by the pipeline.
type Notifier interface {
	Notify(ctx context.Context, subject, message string, sev Severity) error
}

// Multi fans an escalation out to several notifiers. Each target is attempted
// even when an earlier one fails; failures are logged and the first error is
// returned.
type Multi struct {
	targets []Notifier
	logger  log.Logger
}

// NewMulti creates a fan-out notifier.
func NewMulti(logger log.Logger, targets ...Notifier) *Multi {
	if logger == nil {
		logger = log.Nop()
	}
	return &Multi{targets: targets, logger: logger}
}

func (m *Multi) Notify(ctx context.Context, subject, message string, sev Severity) error {
	var firstErr error
	for _, t := range m.targets {
		if err := t.Notify(ctx, subject, message, sev); err != nil {
			m.logger.Warn(ctx, "notification delivery failed",
				"subject", subject,
				"severity", string(sev),
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Noop discards escalations. Used when no notification channel is configured.
type Noop struct{}

func (Noop) Notify(context.Context, string, string, Severity) error { return nil }
