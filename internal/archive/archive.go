// Package archive persists incident context snapshots for later review.
package archive

import "context"

// Archiver stores a JSON document under a key.
type Archiver interface {
	Put(ctx context.Context, key string, body []byte) error
}

// Noop discards everything. Used when no archive backend is configured.
type Noop struct{}

func (Noop) Put(context.Context, string, []byte) error { return nil }
