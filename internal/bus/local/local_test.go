package local

import (
	"context"
	"testing"
	"time"

	"github.com/linnemanlabs/warden/internal/alarm"
	"github.com/linnemanlabs/warden/internal/bus"
)

func TestForward_InvokesHandler(t *testing.T) {
	t.Parallel()

	got := make(chan *bus.ForwardedEvent, 1)
	f := New(func(_ context.Context, fwd *bus.ForwardedEvent) {
		got <- fwd
	})

	want := &bus.ForwardedEvent{
		IncidentKey: "abc123",
		Event:       alarm.Event{AlarmName: "HighCPU", Region: "us-east-1", Account: "1"},
		ProcessedAt: time.Now(),
	}
	if err := f.Forward(context.Background(), want); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	select {
	case fwd := <-got:
		if fwd.IncidentKey != want.IncidentKey {
			t.Errorf("IncidentKey = %q, want %q", fwd.IncidentKey, want.IncidentKey)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestForward_SurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	done := make(chan error, 1)
	f := New(func(ctx context.Context, _ *bus.ForwardedEvent) {
		done <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.Forward(ctx, &bus.ForwardedEvent{IncidentKey: "k"}); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("handler context was cancelled: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}
