// Package pgstore provides a PostgreSQL implementation of incident.Store.
//
// Unlike the single-table layouts, canonical status and sighting history are
// two relations here; see schema.sql.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/warden/internal/incident"
)

var tracer = otel.Tracer("github.com/linnemanlabs/warden/internal/incident/pgstore")

//go:embed schema.sql
var schema string

// Store persists incident records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store over an existing pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// SeenSince reports whether any sighting of key exists at or after since.
func (s *Store) SeenSince(ctx context.Context, key string, since time.Time) (bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.SeenSince", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var seen bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sightings WHERE incident_key = $1 AND observed_at >= $2)`,
		key, since.UnixMilli(),
	).Scan(&seen)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("query sightings: %w", err)
	}
	return seen, nil
}

// RecordSighting inserts a history record. Re-inserting the same
// (key, observed_at) pair is a no-op so redeliveries stay idempotent.
func (s *Store) RecordSighting(ctx context.Context, rec *incident.Record) error {
	ctx, span := tracer.Start(ctx, "pgstore.RecordSighting", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO sightings (incident_key, observed_at, alarm_name, alarm_state, region, account, raw_event, created_at, expires_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (incident_key, observed_at) DO NOTHING`,
		rec.Key, rec.ObservedAt, rec.AlarmName, rec.AlarmState, rec.Region, rec.Account,
		rec.RawEvent, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert sighting: %w", err)
	}
	return nil
}

// SetStatus upserts the canonical record for key. Last-writer-wins.
func (s *Store) SetStatus(ctx context.Context, key string, status incident.Status, payload json.RawMessage) error {
	ctx, span := tracer.Start(ctx, "pgstore.SetStatus", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO incidents (incident_key, status, payload, updated_at, expires_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (incident_key) DO UPDATE SET
			status     = EXCLUDED.status,
			payload    = COALESCE(EXCLUDED.payload, incidents.payload),
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at`,
		key, string(status), payload, now, now.Add(incident.DefaultRetention).Unix(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert incident: %w", err)
	}
	return nil
}

// GetCanonical returns the canonical record for key.
func (s *Store) GetCanonical(ctx context.Context, key string) (*incident.Record, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetCanonical", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var (
		rec     incident.Record
		status  string
		payload []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT incident_key, status, payload, created_at, updated_at, expires_at
		 FROM incidents WHERE incident_key = $1`,
		key,
	).Scan(&rec.Key, &status, &payload, &rec.CreatedAt, &rec.UpdatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("query incident: %w", err)
	}

	rec.ObservedAt = incident.SentinelObservedAt
	rec.Status = incident.Status(status)
	if payload != nil {
		rec.Payload = json.RawMessage(payload)
	}
	return &rec, true, nil
}
