// Package ingestapi exposes the HTTP surface: alarm submission and incident
// lookup.
package ingestapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/warden/internal/alarm"
	"github.com/linnemanlabs/warden/internal/dedup"
	"github.com/linnemanlabs/warden/internal/incident"
)

// IncidentService defines the business operations ingestapi needs.
type IncidentService interface {
	Submit(ctx context.Context, ev *alarm.Event) (*dedup.Outcome, error)
	Get(ctx context.Context, key string) (*incident.Record, bool, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    IncidentService
}

// New creates a new API handler.
func New(logger log.Logger, svc IncidentService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("incident service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/alarms", a.handleSubmitAlarm)
		r.Get("/incidents/{key}", a.handleGetIncident)
	})
}

func (a *API) handleSubmitAlarm(w http.ResponseWriter, r *http.Request) {
	var ev alarm.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if err := ev.Validate(); err != nil {
		a.logger.Info(r.Context(), "rejected alarm submission", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	outcome, err := a.svc.Submit(r.Context(), &ev)
	if err != nil {
		a.logger.Error(r.Context(), err, "alarm submission failed",
			"alarm_name", ev.AlarmName,
		)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("warden.incident.key", outcome.IncidentKey),
		attribute.String("warden.dedup.action", string(outcome.Action)),
	)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"action":      string(outcome.Action),
		"incidentKey": outcome.IncidentKey,
	})
}

func (a *API) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("warden.incident.key", key))

	rec, ok, err := a.svc.Get(r.Context(), key)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get incident", "incident_key", key)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(attribute.String("warden.incident.status", string(rec.Status)))

	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
