// Package eventbridge publishes forwarded events to an AWS EventBridge bus,
// for deployments where an external consumer runs the incident pipeline.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/linnemanlabs/warden/internal/bus"
)

const (
	eventSource = "warden.dedup"
	detailType  = "New Incident Detected"
)

// Forwarder publishes forwarded events as custom EventBridge events.
type Forwarder struct {
	client  *eventbridge.Client
	busName string
}

// New creates an EventBridge forwarder on the named bus.
func New(client *eventbridge.Client, busName string) *Forwarder {
	return &Forwarder{client: client, busName: busName}
}

// Forward publishes one event. Partial-failure responses surface as errors
// so the caller's redelivery can retry.
func (f *Forwarder) Forward(ctx context.Context, fwd *bus.ForwardedEvent) error {
	detail, err := json.Marshal(fwd)
	if err != nil {
		return fmt.Errorf("eventbridge: marshal detail: %w", err)
	}

	out, err := f.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			Source:       aws.String(eventSource),
			DetailType:   aws.String(detailType),
			Detail:       aws.String(string(detail)),
			EventBusName: aws.String(f.busName),
		}},
	})
	if err != nil {
		return fmt.Errorf("eventbridge: put events: %w", err)
	}
	if out.FailedEntryCount > 0 {
		for _, e := range out.Entries {
			if e.ErrorCode != nil {
				return fmt.Errorf("eventbridge: entry rejected: %s: %s",
					aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
			}
		}
		return fmt.Errorf("eventbridge: %d entries rejected", out.FailedEntryCount)
	}
	return nil
}
