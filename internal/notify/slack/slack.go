// Package slack delivers escalation notifications to Slack via incoming
// webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/warden/internal/notify"
)

const (
	maxMessageLen = 3000
	httpTimeout   = 10 * time.Second
)

// Notifier posts escalations to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a Slack notifier. If webhookURL is empty, Notify is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Notify posts the escalation to the configured webhook. If no webhook URL is
// configured, it returns nil immediately.
func (n *Notifier) Notify(ctx context.Context, subject, message string, sev notify.Severity) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(subject, message, sev))
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(subject, message string, sev notify.Severity) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(subject, sev),
			{"type": "divider"},
			bodyBlock(message),
			contextBlock(sev),
		},
	}
}

func headerBlock(subject string, sev notify.Severity) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s %s", severityEmoji(sev), subject),
		},
	}
}

func bodyBlock(message string) map[string]any {
	text := truncate(message, maxMessageLen)
	if text == "" {
		text = "_No details available._"
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": text,
		},
	}
}

func contextBlock(sev notify.Severity) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("warden • severity %s • %s", sev, time.Now().UTC().Format("2006-01-02 15:04 UTC")),
			},
		},
	}
}

func severityEmoji(sev notify.Severity) string {
	switch sev {
	case notify.SeverityCritical:
		return "\U0001f534" // red circle
	case notify.SeverityHigh:
		return "\U0001f7e0" // orange circle
	case notify.SeverityMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
