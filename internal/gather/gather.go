// Package gather assembles the investigation context for an alarm: the alarm
// identity plus whatever recent log lines the configured source can provide.
// Log collection is best-effort; a broken log source degrades the context, it
// never blocks the pipeline.
package gather

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/alarm"
	"github.com/linnemanlabs/warden/internal/incident"
	"github.com/linnemanlabs/warden/internal/logsource"
)

const (
	defaultLogWindow = 15 * time.Minute
	defaultLogLimit  = 10
)

// Gatherer builds incident contexts from alarm events.
type Gatherer struct {
	source    logsource.Source
	logWindow time.Duration
	logLimit  int
	logger    log.Logger
}

// Option configures a Gatherer.
type Option func(*Gatherer)

// WithLogWindow sets how far back log collection reaches.
func WithLogWindow(d time.Duration) Option {
	return func(g *Gatherer) {
		if d > 0 {
			g.logWindow = d
		}
	}
}

// WithLogLimit caps the number of collected log lines.
func WithLogLimit(n int) Option {
	return func(g *Gatherer) {
		if n > 0 {
			g.logLimit = n
		}
	}
}

// New creates a Gatherer. source may be nil, in which case contexts carry no
// log lines.
func New(source logsource.Source, logger log.Logger, opts ...Option) *Gatherer {
	if logger == nil {
		logger = log.Nop()
	}
	g := &Gatherer{
		source:    source,
		logWindow: defaultLogWindow,
		logLimit:  defaultLogLimit,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Gather builds the context for an alarm event. It always succeeds: if the
// log source errors the returned context simply has no log lines.
func (g *Gatherer) Gather(ctx context.Context, ev *alarm.Event) *incident.Context {
	ictx := &incident.Context{
		AlarmName:   ev.AlarmName,
		AlarmState:  ev.AlarmState,
		AlarmReason: ev.AlarmReason,
		Region:      ev.Region,
		Account:     ev.Account,
		GatheredAt:  time.Now().UTC(),
	}

	if g.source == nil {
		return ictx
	}

	lines, err := g.source.RecentLines(ctx, ev.AlarmName, g.logWindow, g.logLimit)
	if err != nil {
		g.logger.Warn(ctx, "log collection failed, continuing without logs",
			"alarm_name", ev.AlarmName,
			"error", err,
		)
		return ictx
	}
	ictx.LogLines = lines
	return ictx
}
