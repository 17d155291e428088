package logsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

const (
	defaultLimit = 10
	maxLimit     = 100
	httpTimeout  = 30 * time.Second
)

// errorFilter narrows log lines to the ones worth showing an investigator.
const errorFilter = `|~ "ERROR|Exception|Failed"`

// Loki queries a Loki endpoint for recent error-ish lines.
type Loki struct {
	endpoint   string
	tenantID   string
	selector   string
	httpClient *http.Client
}

// NewLoki creates a Loki log source. selector is the LogQL stream selector
// scoping which logs belong to this deployment, e.g. {job="app"}.
func NewLoki(endpoint, tenantID, selector string) *Loki {
	return &Loki{
		endpoint:   endpoint,
		tenantID:   tenantID,
		selector:   selector,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

type lokiResponse struct {
	Status string `json:"status"`
	Data   struct {
		Result []lokiStream `json:"result"`
	} `json:"data"`
}

// RecentLines fetches up to limit error lines from the window ending now.
// The alarm name currently only shapes logging upstream; the selector scopes
// the query.
func (l *Loki) RecentLines(ctx context.Context, _ string, window time.Duration, limit int) ([]string, error) {
	switch {
	case limit <= 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}

	now := time.Now().UTC()

	u, err := url.Parse(l.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	u.Path = path.Join(u.Path, "loki/api/v1/query_range")

	q := u.Query()
	q.Set("query", l.selector+" "+errorFilter)
	q.Set("start", now.Add(-window).Format(time.RFC3339Nano))
	q.Set("end", now.Format(time.RFC3339Nano))
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("direction", "backward")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if l.tenantID != "" {
		req.Header.Set("X-Scope-OrgID", l.tenantID)
	}

	resp, err := l.httpClient.Do(req) //nolint:gosec // G704: endpoint is trusted config, query params are url-encoded
	if err != nil {
		return nil, fmt.Errorf("loki query failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20)) // 5 MB
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loki returned %d: %s", resp.StatusCode, string(body))
	}

	var lokiResp lokiResponse
	if err := json.Unmarshal(body, &lokiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if lokiResp.Status != "success" {
		return nil, fmt.Errorf("loki query failed: %s", string(body))
	}

	return flattenStreams(lokiResp.Data.Result, limit), nil
}

func flattenStreams(results []lokiStream, limit int) []string {
	lines := make([]string, 0, limit)
	for _, stream := range results {
		for _, entry := range stream.Values {
			if len(entry) < 2 {
				continue
			}
			lines = append(lines, entry[1])
			if len(lines) >= limit {
				return lines
			}
		}
	}
	return lines
}
