// Package local dispatches forwarded events in-process, the default
// single-binary mode.
package local

import (
	"context"

	"github.com/linnemanlabs/warden/internal/bus"
)

// Forwarder hands events straight to a handler on a fresh goroutine.
type Forwarder struct {
	handler bus.Handler
}

// New creates an in-process forwarder over the given handler.
func New(h bus.Handler) *Forwarder {
	return &Forwarder{handler: h}
}

// Forward dispatches asynchronously. The handler gets a context detached
// from the request so an ingest response does not cancel the pipeline run.
func (f *Forwarder) Forward(ctx context.Context, fwd *bus.ForwardedEvent) error {
	go f.handler(context.WithoutCancel(ctx), fwd)
	return nil
}
