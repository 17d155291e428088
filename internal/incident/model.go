package incident

import (
	"encoding/json"
	"time"

	"github.com/linnemanlabs/warden/internal/alarm"
)

// Status tracks where an incident is in its lifecycle.
type Status string

const (
	// StatusNew means recorded by the deduplicator, not yet picked up
	StatusNew Status = "new"

	// StatusProcessing means the pipeline is working the incident
	StatusProcessing Status = "processing"

	// StatusCompleted means a decision was produced
	StatusCompleted Status = "completed"

	// StatusFailed means the pipeline run hit an unexpected error
	StatusFailed Status = "failed"
)

// Terminal reports whether the status ends a pipeline run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SentinelObservedAt is the reserved sort-key value of the canonical record
// that carries current lifecycle status. Sighting records use the actual
// firing time and never collide with it.
const SentinelObservedAt int64 = 0

// DefaultRetention is the passive-expiry horizon for all records.
const DefaultRetention = 90 * 24 * time.Hour

// Record is one row in the incident store: the canonical status record when
// ObservedAt is the sentinel, a historical sighting otherwise.
type Record struct {
	Key        string          `json:"incidentKey"`
	ObservedAt int64           `json:"observedAtMillis"`
	Status     Status          `json:"status"`
	AlarmName  string          `json:"alarmName,omitempty"`
	AlarmState string          `json:"alarmState,omitempty"`
	Region     string          `json:"region,omitempty"`
	Account    string          `json:"account,omitempty"`
	RawEvent   json.RawMessage `json:"rawEvent,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt,omitempty"`
	ExpiresAt  int64           `json:"expiresAt"`
}

// NewSighting builds the history record for an accepted alarm firing.
func NewSighting(key string, ev *alarm.Event, now time.Time) *Record {
	raw, _ := json.Marshal(ev)
	return &Record{
		Key:        key,
		ObservedAt: now.UnixMilli(),
		Status:     StatusNew,
		AlarmName:  ev.AlarmName,
		AlarmState: ev.AlarmState,
		Region:     ev.Region,
		Account:    ev.Account,
		RawEvent:   raw,
		CreatedAt:  now.UTC(),
		ExpiresAt:  now.Add(DefaultRetention).Unix(),
	}
}

// DecisionSource identifies which path produced a decision.
type DecisionSource string

const (
	SourceAgent    DecisionSource = "agent"
	SourceFallback DecisionSource = "fallback"
)

// DecisionResult is the normalized outcome of decision routing, produced for
// every incident regardless of whether the agent or the fallback rules ran.
type DecisionResult struct {
	Source        DecisionSource `json:"source"`
	Confidence    float64        `json:"confidence"`
	Action        string         `json:"action"`
	Rationale     string         `json:"rationale"`
	HumanNotified bool           `json:"humanNotified"`
}

// Context is the diagnostic bundle assembled for one pipeline run. It is
// never written to the incident store, only archived as a blob for audit.
type Context struct {
	AlarmName   string    `json:"alarmName"`
	AlarmState  string    `json:"alarmState"`
	AlarmReason string    `json:"alarmReason,omitempty"`
	Region      string    `json:"region"`
	Account     string    `json:"account"`
	LogLines    []string  `json:"logs"`
	GatheredAt  time.Time `json:"gatheredAt"`
}
