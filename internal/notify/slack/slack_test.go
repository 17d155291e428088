package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/linnemanlabs/warden/internal/notify"
)

func TestNotify_PostsToWebhook(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL)

	err := n.Notify(context.Background(), "Incident Processing Failed",
		"incident a1b2c3d4e5f60718 failed: store unavailable", notify.SeverityCritical)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	blocks, ok := got["blocks"].([]any)
	if !ok {
		t.Fatal("expected blocks array in payload")
	}

	// header, divider, body, context = 4 blocks
	if len(blocks) != 4 {
		t.Errorf("blocks count = %d, want 4", len(blocks))
	}

	header := blocks[0].(map[string]any)
	headerText := header["text"].(map[string]any)["text"].(string)
	if !strings.Contains(headerText, "Incident Processing Failed") {
		t.Errorf("header text = %q, want subject in it", headerText)
	}
	if !strings.Contains(headerText, "\U0001f534") {
		t.Errorf("header should contain red circle for critical severity")
	}
}

func TestNotify_NoOpWithoutURL(t *testing.T) {
	t.Parallel()

	n := New("")
	if err := n.Notify(context.Background(), "s", "m", notify.SeverityLow); err != nil {
		t.Fatalf("Notify with empty URL should be no-op, got: %v", err)
	}
}

func TestNotify_TruncatesLongMessage(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL)
	long := strings.Repeat("x", maxMessageLen*2)
	if err := n.Notify(context.Background(), "subject", long, notify.SeverityMedium); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	blocks := got["blocks"].([]any)
	body := blocks[2].(map[string]any)
	bodyText := body["text"].(map[string]any)["text"].(string)
	if len(bodyText) > maxMessageLen {
		t.Errorf("body length = %d, want <= %d", len(bodyText), maxMessageLen)
	}
	if !strings.HasSuffix(bodyText, "...") {
		t.Error("truncated body should end with ellipsis")
	}
}

func TestNotify_WebhookError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := New(srv.URL)
	err := n.Notify(context.Background(), "s", "m", notify.SeverityHigh)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %v, want status code in it", err)
	}
}

func TestSeverityEmoji(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sev  notify.Severity
		want string
	}{
		{notify.SeverityCritical, "\U0001f534"},
		{notify.SeverityHigh, "\U0001f7e0"},
		{notify.SeverityMedium, "\U0001f7e1"},
		{notify.SeverityLow, "\U0001f7e2"},
	}

	for _, tt := range tests {
		if got := severityEmoji(tt.sev); got != tt.want {
			t.Errorf("severityEmoji(%s) = %q, want %q", tt.sev, got, tt.want)
		}
	}
}
