// Package alarm defines the inbound alarm event model and the derivation
// of deterministic incident identity from it.
package alarm

import (
	"errors"
	"fmt"
	"time"
)

// Event is a single alarm firing as delivered by the monitoring source.
type Event struct {
	AlarmName   string `json:"alarmName"`
	AlarmState  string `json:"alarmState"`
	AlarmReason string `json:"alarmReason,omitempty"`
	Region      string `json:"region"`
	Account     string `json:"account"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Validate checks the fields that incident identity is derived from.
func (e *Event) Validate() error {
	var errs []error
	if e.AlarmName == "" {
		errs = append(errs, errors.New("alarmName is required"))
	}
	if e.Region == "" {
		errs = append(errs, errors.New("region is required"))
	}
	if e.Account == "" {
		errs = append(errs, errors.New("account is required"))
	}
	if e.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
			errs = append(errs, fmt.Errorf("timestamp is not RFC3339: %w", err))
		}
	}
	return errors.Join(errs...)
}
