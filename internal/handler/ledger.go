package handler

import (
	"net/http"
	"time"

	"github.com/fleetops/tripcore/internal/domain"
)

// AddStopRequest is the body for POST /trips/{id}/stops.
type AddStopRequest struct {
	Type       domain.StopType `json:"type"`
	Name       string          `json:"name"`
	Location   string          `json:"location,omitempty"`
	ArrivedAt  time.Time       `json:"arrived_at"`
	DepartedAt *time.Time      `json:"departed_at,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// StopDepartureRequest is the body for PATCH /trips/{id}/stops/{stopId}/departure.
type StopDepartureRequest struct {
	DepartedAt time.Time `json:"departed_at"`
}

// AddIncidentRequest is the body for POST /trips/{id}/incidents.
type AddIncidentRequest struct {
	Type        domain.IncidentType     `json:"type"`
	Severity    domain.IncidentSeverity `json:"severity"`
	Description string                  `json:"description"`
	OccurredAt  time.Time               `json:"occurred_at"`
}

// ResolveIncidentRequest is the body for POST /trips/{id}/incidents/{incidentId}/resolve.
type ResolveIncidentRequest struct {
	ActualCost *float64 `json:"actual_cost,omitempty"`
}

// AddTrackingRequest is the body for POST /trips/{id}/tracking.
type AddTrackingRequest struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AltitudeM  *float64  `json:"altitude_m,omitempty"`
	SpeedKmh   *float64  `json:"speed_kmh,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AddStop handles POST /trips/{id}/stops.
func (s *Server) AddStop(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	user, err := actingUser(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req AddStopRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	stop := domain.TripStop{
		TripID:     tripID,
		Type:       req.Type,
		Name:       req.Name,
		Location:   req.Location,
		ArrivedAt:  req.ArrivedAt,
		DepartedAt: req.DepartedAt,
		Notes:      req.Notes,
	}

	created, err := s.ledger.AddStop(r.Context(), stop, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// SetStopDeparture handles PATCH /trips/{id}/stops/{stopId}/departure.
func (s *Server) SetStopDeparture(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	stopID, err := pathUUID(r, "stopId")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	user, err := actingUser(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req StopDepartureRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	updated, err := s.ledger.SetStopDeparture(r.Context(), tripID, stopID, req.DepartedAt, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ListStops handles GET /trips/{id}/stops.
func (s *Server) ListStops(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	stops, err := s.ledger.ListStops(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stops)
}

// AddIncident handles POST /trips/{id}/incidents.
func (s *Server) AddIncident(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	user, err := actingUser(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req AddIncidentRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	inc := domain.TripIncident{
		TripID:      tripID,
		Type:        req.Type,
		Severity:    req.Severity,
		Description: req.Description,
		OccurredAt:  req.OccurredAt,
	}

	created, err := s.ledger.AddIncident(r.Context(), inc, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ResolveIncident handles POST /trips/{id}/incidents/{incidentId}/resolve.
func (s *Server) ResolveIncident(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	incidentID, err := pathUUID(r, "incidentId")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	user, err := actingUser(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req ResolveIncidentRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	resolved, err := s.ledger.ResolveIncident(r.Context(), tripID, incidentID, req.ActualCost, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

// ListIncidents handles GET /trips/{id}/incidents.
func (s *Server) ListIncidents(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	incidents, err := s.ledger.ListIncidents(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, incidents)
}

// AddTracking handles POST /trips/{id}/tracking.
// Tracking writes need no acting user: they come from devices, not people.
func (s *Server) AddTracking(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req AddTrackingRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	pt := domain.TrackingPoint{
		TripID:     tripID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		AltitudeM:  req.AltitudeM,
		SpeedKmh:   req.SpeedKmh,
		Heading:    req.Heading,
		AccuracyM:  req.AccuracyM,
		RecordedAt: req.RecordedAt,
	}

	created, err := s.ledger.AddTrackingPoint(r.Context(), pt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListTracking handles GET /trips/{id}/tracking.
// Supports optional ?from= and ?to= RFC 3339 bounds.
func (s *Server) ListTracking(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var rng domain.TimeRange
	if rng.From, err = queryTime(r, "from"); err != nil {
		badRequest(w, err.Error())
		return
	}
	if rng.To, err = queryTime(r, "to"); err != nil {
		badRequest(w, err.Error())
		return
	}

	points, err := s.ledger.ListTracking(r.Context(), tripID, rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}
