package decide

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linnemanlabs/warden/internal/incident"
)

type fakeAgent struct {
	analysis *Analysis
	err      error
	delay    time.Duration
}

func (f *fakeAgent) Analyze(ctx context.Context, _ string, _ *incident.Context) (*Analysis, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.analysis, f.err
}

func memoryContext() *incident.Context {
	return &incident.Context{
		AlarmName:  "HighMemoryUsage",
		AlarmState: "ALARM",
		Region:     "us-east-1",
		Account:    "123456789012",
	}
}

func TestFallbackRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		alarmName  string
		wantAction string
	}{
		{"HighCPUUtilization", "cpu_high_detected"},
		{"cpu-credit-balance-low", "cpu_high_detected"},
		{"HighMemoryUsage", "memory_high_detected"},
		{"memory-pressure", "memory_high_detected"},
		{"DiskSpaceLow", "generic_alarm"},
		{"", "generic_alarm"},
	}

	for _, tt := range tests {
		t.Run(tt.alarmName, func(t *testing.T) {
			t.Parallel()

			res := Fallback(&incident.Context{AlarmName: tt.alarmName})
			if res.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", res.Action, tt.wantAction)
			}
			if !res.HumanNotified {
				t.Error("fallback decision must set HumanNotified")
			}
			if res.Source != incident.SourceFallback {
				t.Errorf("source = %q", res.Source)
			}
			if res.Confidence != fallbackConfidence {
				t.Errorf("confidence = %v", res.Confidence)
			}
			if res.Rationale == "" {
				t.Error("rationale missing")
			}
		})
	}
}

func TestDecideNoAgent(t *testing.T) {
	t.Parallel()

	r := New(nil, nil)

	res := r.Decide(context.Background(), "abc123", memoryContext())
	if res.Source != incident.SourceFallback {
		t.Errorf("source = %q, want fallback", res.Source)
	}
	if res.Action != "memory_high_detected" {
		t.Errorf("action = %q", res.Action)
	}
	if !res.HumanNotified {
		t.Error("HumanNotified not set")
	}
}

func TestDecideAgentSuccess(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{analysis: &Analysis{
		Completion: "Scale out the ASG. Confidence: 0.9",
	}}
	r := New(agent, nil)

	res := r.Decide(context.Background(), "abc123", memoryContext())
	if res.Source != incident.SourceAgent {
		t.Errorf("source = %q, want agent", res.Source)
	}
	if res.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", res.Confidence)
	}
	if res.HumanNotified {
		t.Error("high-confidence agent decision should not escalate")
	}
	if res.Rationale != agent.analysis.Completion {
		t.Errorf("rationale = %q", res.Rationale)
	}
}

func TestDecideAgentLowConfidenceEscalates(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{analysis: &Analysis{
		Completion: "Not sure what this is. confidence: 0.2",
	}}
	r := New(agent, nil)

	res := r.Decide(context.Background(), "abc123", memoryContext())
	if res.Source != incident.SourceAgent {
		t.Errorf("source = %q", res.Source)
	}
	if !res.HumanNotified {
		t.Error("low-confidence agent decision must escalate")
	}
}

func TestDecideAgentErrorFallsBack(t *testing.T) {
	t.Parallel()

	var agentErrs int
	agent := &fakeAgent{err: errors.New("api unavailable")}
	r := New(agent, nil, WithHooks(Hooks{
		OnAgentError: func() { agentErrs++ },
	}))

	res := r.Decide(context.Background(), "abc123", memoryContext())
	if res.Source != incident.SourceFallback {
		t.Errorf("source = %q, want fallback after agent error", res.Source)
	}
	if !res.HumanNotified {
		t.Error("HumanNotified not set")
	}
	if agentErrs != 1 {
		t.Errorf("OnAgentError fired %d times", agentErrs)
	}
}

func TestDecideAgentTimeoutFallsBack(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{
		analysis: &Analysis{Completion: "too late"},
		delay:    200 * time.Millisecond,
	}
	r := New(agent, nil, WithAgentTimeout(10*time.Millisecond))

	start := time.Now()
	res := r.Decide(context.Background(), "abc123", memoryContext())
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Decide blocked for %v", elapsed)
	}
	if res.Source != incident.SourceFallback {
		t.Errorf("source = %q, want fallback after timeout", res.Source)
	}
}

func TestDecideHooksObserveDecision(t *testing.T) {
	t.Parallel()

	var gotSource incident.DecisionSource
	var gotConf float64
	r := New(nil, nil, WithHooks(Hooks{
		OnDecision: func(s incident.DecisionSource, c float64) {
			gotSource, gotConf = s, c
		},
	}))

	r.Decide(context.Background(), "abc123", memoryContext())
	if gotSource != incident.SourceFallback {
		t.Errorf("hook source = %q", gotSource)
	}
	if gotConf != fallbackConfidence {
		t.Errorf("hook confidence = %v", gotConf)
	}
}

func TestParseConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		completion string
		want       float64
	}{
		{"colon", "Confidence: 0.75", 0.75},
		{"equals", "confidence = 0.4", 0.4},
		{"percentage", "confidence 85%", defaultAgentConfidence},
		{"leading dot", "Confidence: .6", 0.6},
		{"one", "Confidence: 1.0", 1},
		{"absent", "scale the fleet", defaultAgentConfidence},
		{"case insensitive", "CONFIDENCE: 0.55", 0.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseConfidence(tt.completion); got != tt.want {
				t.Errorf("parseConfidence(%q) = %v, want %v", tt.completion, got, tt.want)
			}
		})
	}
}
