package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/warden/internal/incident"
)

func sighting(key string, at time.Time) *incident.Record {
	return &incident.Record{
		Key:        key,
		ObservedAt: at.UnixMilli(),
		CreatedAt:  at.UTC(),
		ExpiresAt:  at.Add(incident.DefaultRetention).Unix(),
	}
}

func TestSeenSince_WindowBoundaries(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	if err := s.RecordSighting(ctx, sighting("k1", base)); err != nil {
		t.Fatalf("RecordSighting: %v", err)
	}

	tests := []struct {
		name  string
		since time.Time
		want  bool
	}{
		{"window starts before sighting", base.Add(-5 * time.Minute), true},
		{"window starts at sighting", base, true},
		{"window starts after sighting", base.Add(time.Millisecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := s.SeenSince(ctx, "k1", tt.since)
			if err != nil {
				t.Fatalf("SeenSince: %v", err)
			}
			if got != tt.want {
				t.Errorf("SeenSince(%v) = %v, want %v", tt.since, got, tt.want)
			}
		})
	}
}

func TestSeenSince_UnknownKey(t *testing.T) {
	t.Parallel()

	s := New()
	seen, err := s.SeenSince(context.Background(), "nope", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("SeenSince: %v", err)
	}
	if seen {
		t.Error("expected unknown key to be unseen")
	}
}

func TestSeenSince_KeysIndependent(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	now := time.Now()

	if err := s.RecordSighting(ctx, sighting("a", now)); err != nil {
		t.Fatalf("RecordSighting: %v", err)
	}

	seen, _ := s.SeenSince(ctx, "b", now.Add(-time.Hour))
	if seen {
		t.Error("sighting for key a leaked into key b")
	}
}

func TestSetStatus_CreatesAndOverwrites(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	if err := s.SetStatus(ctx, "k1", incident.StatusNew, nil); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	payload := json.RawMessage(`{"action":"generic_alarm"}`)
	if err := s.SetStatus(ctx, "k1", incident.StatusCompleted, payload); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	rec, ok, err := s.GetCanonical(ctx, "k1")
	if err != nil {
		t.Fatalf("GetCanonical: %v", err)
	}
	if !ok {
		t.Fatal("expected canonical record")
	}
	if rec.Status != incident.StatusCompleted {
		t.Errorf("Status = %q, want %q", rec.Status, incident.StatusCompleted)
	}
	if rec.ObservedAt != incident.SentinelObservedAt {
		t.Errorf("ObservedAt = %d, want sentinel %d", rec.ObservedAt, incident.SentinelObservedAt)
	}
	if string(rec.Payload) != string(payload) {
		t.Errorf("Payload = %s, want %s", rec.Payload, payload)
	}
}

func TestSetStatus_Idempotent(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	for range 3 {
		if err := s.SetStatus(ctx, "k1", incident.StatusProcessing, nil); err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
	}

	rec, ok, _ := s.GetCanonical(ctx, "k1")
	if !ok || rec.Status != incident.StatusProcessing {
		t.Errorf("canonical = %+v, want processing record", rec)
	}
}

func TestGetCanonical_Missing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.GetCanonical(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetCanonical: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing key")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n * 2)

	for i := range n {
		key := fmt.Sprintf("k-%d", i)
		now := time.Now()

		go func() {
			defer wg.Done()
			_ = s.RecordSighting(ctx, sighting(key, now))
			_ = s.SetStatus(ctx, key, incident.StatusNew, nil)
		}()

		go func() {
			defer wg.Done()
			_, _ = s.SeenSince(ctx, key, now.Add(-time.Minute))
			_, _, _ = s.GetCanonical(ctx, key)
		}()
	}

	wg.Wait()
}
