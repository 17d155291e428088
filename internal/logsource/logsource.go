// Package logsource fetches recent diagnostic log lines for an incident.
package logsource

import (
	"context"
	"time"
)

// Source returns recent log lines relevant to an alarm. Best-effort by
// contract: callers treat an error as "no logs", never as a failed incident.
type Source interface {
	RecentLines(ctx context.Context, alarmName string, window time.Duration, limit int) ([]string, error)
}
