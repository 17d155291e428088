// Package decide turns an incident context into a decision. When a reasoning
// agent is configured it is consulted first; on any agent failure, timeout, or
// when no agent exists, deterministic fallback rules produce the decision
// instead. Decide always returns a result.
package decide

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/incident"
)

const (
	// DefaultAgentTimeout bounds a single agent invocation.
	DefaultAgentTimeout = 60 * time.Second

	// DefaultConfidenceThreshold is the confidence below which an agent
	// decision is escalated to a human anyway.
	DefaultConfidenceThreshold = 0.5

	// defaultAgentConfidence applies when the agent completes but never
	// states a confidence.
	defaultAgentConfidence = 0.8

	// fallbackConfidence is deliberately low: rule-based decisions always
	// go to a human.
	fallbackConfidence = 0.3
)

// Analysis is the raw output of a reasoning agent. Confidence is optional;
// zero means the agent did not state one and the router infers or defaults it.
type Analysis struct {
	Completion string
	Confidence float64
}

// Agent is a reasoning backend that analyzes an incident. Implementations
// must honor context cancellation.
type Agent interface {
	Analyze(ctx context.Context, incidentKey string, ictx *incident.Context) (*Analysis, error)
}

// Hooks receives router outcomes for instrumentation.
type Hooks struct {
	// OnDecision is called with the source of every decision.
	OnDecision func(source incident.DecisionSource, confidence float64)
	// OnAgentError is called when the agent fails and the router falls back.
	OnAgentError func()
}

// Router produces decisions, preferring the agent when one is configured.
type Router struct {
	agent     Agent
	timeout   time.Duration
	threshold float64
	logger    log.Logger
	hooks     Hooks
}

// Option configures a Router.
type Option func(*Router)

// WithAgentTimeout sets the hard deadline on a single agent invocation.
func WithAgentTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithConfidenceThreshold sets the escalation threshold for agent decisions.
func WithConfidenceThreshold(v float64) Option {
	return func(r *Router) {
		if v > 0 && v <= 1 {
			r.threshold = v
		}
	}
}

// WithHooks attaches instrumentation hooks.
func WithHooks(h Hooks) Option {
	return func(r *Router) { r.hooks = h }
}

// New creates a Router. agent may be nil, in which case every decision comes
// from the fallback rules.
func New(agent Agent, logger log.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = log.Nop()
	}
	r := &Router{
		agent:     agent,
		timeout:   DefaultAgentTimeout,
		threshold: DefaultConfidenceThreshold,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Decide produces a decision for the incident. It never returns an error: an
// unconfigured or failing agent degrades to the fallback rules.
func (r *Router) Decide(ctx context.Context, incidentKey string, ictx *incident.Context) *incident.DecisionResult {
	if r.agent == nil {
		return r.finish(ctx, incidentKey, Fallback(ictx))
	}

	actx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	analysis, err := r.agent.Analyze(actx, incidentKey, ictx)
	if err != nil {
		r.logger.Warn(ctx, "agent analysis failed, using fallback rules",
			"incident_key", incidentKey,
			"error", err,
		)
		if r.hooks.OnAgentError != nil {
			r.hooks.OnAgentError()
		}
		return r.finish(ctx, incidentKey, Fallback(ictx))
	}

	conf := analysis.Confidence
	if conf <= 0 {
		conf = parseConfidence(analysis.Completion)
	}
	res := &incident.DecisionResult{
		Source:        incident.SourceAgent,
		Confidence:    conf,
		Action:        "agent_analysis",
		Rationale:     analysis.Completion,
		HumanNotified: conf < r.threshold,
	}
	return r.finish(ctx, incidentKey, res)
}

func (r *Router) finish(ctx context.Context, incidentKey string, res *incident.DecisionResult) *incident.DecisionResult {
	r.logger.Info(ctx, "decision produced",
		"incident_key", incidentKey,
		"source", string(res.Source),
		"action", res.Action,
		"confidence", res.Confidence,
		"human_notified", res.HumanNotified,
	)
	if r.hooks.OnDecision != nil {
		r.hooks.OnDecision(res.Source, res.Confidence)
	}
	return res
}

// confidencePattern matches statements like "confidence: 0.85" or
// "Confidence = 1.0" in an agent completion.
var confidencePattern = regexp.MustCompile(`(?i)confidence[:=]?\s*(1(?:\.0+)?|0?\.\d+)`)

func parseConfidence(completion string) float64 {
	m := confidencePattern.FindStringSubmatch(completion)
	if m == nil {
		return defaultAgentConfidence
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 1 {
		return defaultAgentConfidence
	}
	return v
}
