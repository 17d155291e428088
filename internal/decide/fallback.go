package decide

import (
	"strings"

	"github.com/linnemanlabs/warden/internal/incident"
)

// Fallback applies the deterministic keyword rules over the alarm name. The
// result always carries HumanNotified = true: rule-based decisions never
// resolve an incident on their own.
func Fallback(ictx *incident.Context) *incident.DecisionResult {
	name := strings.ToUpper(ictx.AlarmName)

	var action, rationale string
	switch {
	case strings.Contains(name, "CPU"):
		action = "cpu_high_detected"
		rationale = "CPU-related alarm: scale out or investigate runaway processes."
	case strings.Contains(name, "MEMORY"):
		action = "memory_high_detected"
		rationale = "Memory-related alarm: check for leaks or scale up."
	default:
		action = "generic_alarm"
		rationale = "Unrecognized alarm pattern: manual investigation required."
	}

	return &incident.DecisionResult{
		Source:        incident.SourceFallback,
		Confidence:    fallbackConfidence,
		Action:        action,
		Rationale:     rationale,
		HumanNotified: true,
	}
}
