package pgstore_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/warden/internal/incident"
	"github.com/linnemanlabs/warden/internal/incident/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("WARDEN_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("WARDEN_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

func TestRecordSightingAndSeenSince(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	rec := &incident.Record{
		Key:        "itest-seen-001",
		ObservedAt: now.UnixMilli(),
		AlarmName:  "HighCPU",
		AlarmState: "ALARM",
		Region:     "us-east-1",
		Account:    "123",
		RawEvent:   json.RawMessage(`{"alarmName":"HighCPU"}`),
		CreatedAt:  now,
		ExpiresAt:  now.Add(incident.DefaultRetention).Unix(),
	}

	if err := s.RecordSighting(ctx, rec); err != nil {
		t.Fatalf("RecordSighting: %v", err)
	}

	// Re-insert must be a no-op, not an error.
	if err := s.RecordSighting(ctx, rec); err != nil {
		t.Fatalf("RecordSighting (repeat): %v", err)
	}

	seen, err := s.SeenSince(ctx, rec.Key, now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("SeenSince: %v", err)
	}
	if !seen {
		t.Error("expected sighting inside the window to be seen")
	}

	seen, err = s.SeenSince(ctx, rec.Key, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("SeenSince: %v", err)
	}
	if seen {
		t.Error("expected sighting before the window to be unseen")
	}
}

func TestSetStatusAndGetCanonical(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	key := "itest-status-001"
	if err := s.SetStatus(ctx, key, incident.StatusProcessing, nil); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	payload := json.RawMessage(`{"action":"cpu_high_detected","confidence":0.3}`)
	if err := s.SetStatus(ctx, key, incident.StatusCompleted, payload); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	rec, ok, err := s.GetCanonical(ctx, key)
	if err != nil {
		t.Fatalf("GetCanonical: %v", err)
	}
	if !ok {
		t.Fatal("expected canonical record")
	}
	if rec.Status != incident.StatusCompleted {
		t.Errorf("Status = %q, want %q", rec.Status, incident.StatusCompleted)
	}
	if len(rec.Payload) == 0 {
		t.Error("expected decision payload on completed record")
	}
}

func TestGetCanonical_Missing(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.GetCanonical(context.Background(), "itest-never-written")
	if err != nil {
		t.Fatalf("GetCanonical: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing key")
	}
}
