// Package memstore provides an in-memory implementation of incident.Store.
package memstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/linnemanlabs/warden/internal/incident"
)

// Store holds incident records in memory. Suitable for dev/testing; nothing
// expires, since process lifetime bounds retention anyway.
type Store struct {
	mu        sync.RWMutex
	sightings map[string][]int64           // incident key -> observed-at millis
	canonical map[string]*incident.Record  // incident key -> sentinel record
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		sightings: make(map[string][]int64),
		canonical: make(map[string]*incident.Record),
	}
}

// SeenSince reports whether key has a sighting at or after since.
func (s *Store) SeenSince(_ context.Context, key string, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := since.UnixMilli()
	for _, at := range s.sightings[key] {
		if at >= cutoff {
			return true, nil
		}
	}
	return false, nil
}

// RecordSighting appends a history record for key.
func (s *Store) RecordSighting(_ context.Context, rec *incident.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sightings[rec.Key] = append(s.sightings[rec.Key], rec.ObservedAt)
	return nil
}

// SetStatus overwrites the canonical record for key.
func (s *Store) SetStatus(_ context.Context, key string, status incident.Status, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	rec, ok := s.canonical[key]
	if !ok {
		rec = &incident.Record{
			Key:        key,
			ObservedAt: incident.SentinelObservedAt,
			CreatedAt:  now,
			ExpiresAt:  now.Add(incident.DefaultRetention).Unix(),
		}
		s.canonical[key] = rec
	}
	rec.Status = status
	rec.UpdatedAt = now
	if payload != nil {
		rec.Payload = append(json.RawMessage(nil), payload...)
	}
	return nil
}

// GetCanonical returns a copy of the canonical record for key.
func (s *Store) GetCanonical(_ context.Context, key string) (*incident.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.canonical[key]
	if !ok {
		return nil, false, nil
	}
	cp := *rec
	return &cp, true, nil
}
