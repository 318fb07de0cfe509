package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/tripcore/internal/domain"
	"github.com/fleetops/tripcore/internal/service"
)

// CreateTripRequest is the body for POST /trips.
type CreateTripRequest struct {
	TripNumber         string     `json:"trip_number"`
	RouteID            uuid.UUID  `json:"route_id"`
	TruckID            uuid.UUID  `json:"truck_id"`
	DriverID           uuid.UUID  `json:"driver_id"`
	CoDriverID         *uuid.UUID `json:"co_driver_id,omitempty"`
	ScheduledDeparture time.Time  `json:"scheduled_departure"`
	ScheduledArrival   *time.Time `json:"scheduled_arrival,omitempty"`
	CargoDescription   string     `json:"cargo_description,omitempty"`
	CargoWeightKg      *float64   `json:"cargo_weight_kg,omitempty"`
	ClientName         string     `json:"client_name,omitempty"`
	DeliveryNote       string     `json:"delivery_note,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

// UpdateTripRequest is the body for PUT /trips/{id}. All fields optional.
// The clear flags reset the nullable co-driver and scheduled-arrival fields;
// omitting a field always leaves it unchanged.
type UpdateTripRequest struct {
	RouteID               *uuid.UUID `json:"route_id,omitempty"`
	TruckID               *uuid.UUID `json:"truck_id,omitempty"`
	DriverID              *uuid.UUID `json:"driver_id,omitempty"`
	CoDriverID            *uuid.UUID `json:"co_driver_id,omitempty"`
	ScheduledDeparture    *time.Time `json:"scheduled_departure,omitempty"`
	ScheduledArrival      *time.Time `json:"scheduled_arrival,omitempty"`
	CargoDescription      *string    `json:"cargo_description,omitempty"`
	CargoWeightKg         *float64   `json:"cargo_weight_kg,omitempty"`
	ClientName            *string    `json:"client_name,omitempty"`
	DeliveryNote          *string    `json:"delivery_note,omitempty"`
	Notes                 *string    `json:"notes,omitempty"`
	ClearCoDriver         bool       `json:"clear_co_driver,omitempty"`
	ClearScheduledArrival bool       `json:"clear_scheduled_arrival,omitempty"`
}

// StartTripRequest is the body for POST /trips/{id}/start.
// ActualDeparture defaults to the current time when omitted.
type StartTripRequest struct {
	OdometerStart    float64    `json:"odometer_start"`
	EngineHoursStart float64    `json:"engine_hours_start"`
	ActualDeparture  *time.Time `json:"actual_departure,omitempty"`
}

// CompleteTripRequest is the body for POST /trips/{id}/complete.
// ActualArrival defaults to the current time when omitted.
type CompleteTripRequest struct {
	OdometerEnd        float64    `json:"odometer_end"`
	EngineHoursEnd     float64    `json:"engine_hours_end"`
	ActualArrival      *time.Time `json:"actual_arrival,omitempty"`
	FuelConsumedLitres *float64   `json:"fuel_consumed_litres,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

// ReasonRequest is the body for the delay and cancel endpoints.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ListTripsResponse is the paginated body for GET /trips.
type ListTripsResponse struct {
	Data       []domain.Trip `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// Pagination echoes the applied page parameters plus the total match count.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	user, err := actingUser(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req CreateTripRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	trip := domain.Trip{
		TripNumber:         req.TripNumber,
		RouteID:            req.RouteID,
		TruckID:            req.TruckID,
		DriverID:           req.DriverID,
		CoDriverID:         req.CoDriverID,
		ScheduledDeparture: req.ScheduledDeparture,
		ScheduledArrival:   req.ScheduledArrival,
		CargoDescription:   req.CargoDescription,
		CargoWeightKg:      req.CargoWeightKg,
		ClientName:         req.ClientName,
		DeliveryNote:       req.DeliveryNote,
		Notes:              req.Notes,
	}

	created, err := s.trips.Create(r.Context(), trip, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= plus the exhaustive filter set: status,
// truck_id, driver_id, route_id, departure_from, departure_to, client_name.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	f, err := tripFiltersFromQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	params := domain.NewPaginationParams(page, limit)

	trips, total, err := s.trips.List(r.Context(), f, params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListTripsResponse{
		Data:       trips,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// UpdateTrip handles PUT /trips/{id}. Only scheduled trips accept updates.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	user, err := actingUser(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req UpdateTripRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	patch := service.TripUpdate{
		RouteID:               req.RouteID,
		TruckID:               req.TruckID,
		DriverID:              req.DriverID,
		CoDriverID:            req.CoDriverID,
		ScheduledDeparture:    req.ScheduledDeparture,
		ScheduledArrival:      req.ScheduledArrival,
		CargoDescription:      req.CargoDescription,
		CargoWeightKg:         req.CargoWeightKg,
		ClientName:            req.ClientName,
		DeliveryNote:          req.DeliveryNote,
		Notes:                 req.Notes,
		ClearCoDriver:         req.ClearCoDriver,
		ClearScheduledArrival: req.ClearScheduledArrival,
	}

	updated, err := s.trips.Update(r.Context(), id, patch, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// StartTrip handles POST /trips/{id}/start.
func (s *Server) StartTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	user, err := actingUser(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req StartTripRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	cmd := service.StartTripCmd{
		OdometerStart:    req.OdometerStart,
		EngineHoursStart: req.EngineHoursStart,
		ActualDeparture:  time.Now().UTC(),
	}
	if req.ActualDeparture != nil {
		cmd.ActualDeparture = *req.ActualDeparture
	}

	started, err := s.trips.Start(r.Context(), id, cmd, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, started)
}

// CompleteTrip handles POST /trips/{id}/complete.
func (s *Server) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	user, err := actingUser(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req CompleteTripRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	cmd := service.CompleteTripCmd{
		OdometerEnd:        req.OdometerEnd,
		EngineHoursEnd:     req.EngineHoursEnd,
		ActualArrival:      time.Now().UTC(),
		FuelConsumedLitres: req.FuelConsumedLitres,
		Notes:              req.Notes,
	}
	if req.ActualArrival != nil {
		cmd.ActualArrival = *req.ActualArrival
	}

	completed, err := s.trips.Complete(r.Context(), id, cmd, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, completed)
}

// DelayTrip handles POST /trips/{id}/delay.
func (s *Server) DelayTrip(w http.ResponseWriter, r *http.Request) {
	s.transitionWithReason(w, r, s.trips.MarkDelayed)
}

// CancelTrip handles POST /trips/{id}/cancel.
func (s *Server) CancelTrip(w http.ResponseWriter, r *http.Request) {
	s.transitionWithReason(w, r, s.trips.Cancel)
}

// transitionWithReason factors the shared shape of the delay and cancel
// endpoints: path ID + acting user + a reason body.
func (s *Server) transitionWithReason(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, id uuid.UUID, reason, userID string) (domain.Trip, error)) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	user, err := actingUser(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req ReasonRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	trip, err := fn(r.Context(), id, req.Reason, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// GetTripStats handles GET /trips/stats.
func (s *Server) GetTripStats(w http.ResponseWriter, r *http.Request) {
	f, err := tripFiltersFromQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	stats, err := s.trips.Statistics(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetTripAudit handles GET /trips/{id}/audit.
func (s *Server) GetTripAudit(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	entries, err := s.trips.AuditTrail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// tripFiltersFromQuery builds the exhaustive filter struct from query params.
func tripFiltersFromQuery(r *http.Request) (domain.TripFilters, error) {
	var f domain.TripFilters

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.TripStatus(raw)
		if !status.Valid() {
			return domain.TripFilters{}, fmt.Errorf("invalid status %q", raw)
		}
		f.Status = &status
	}
	for name, dst := range map[string]**uuid.UUID{
		"truck_id":  &f.TruckID,
		"driver_id": &f.DriverID,
		"route_id":  &f.RouteID,
	} {
		if raw := r.URL.Query().Get(name); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return domain.TripFilters{}, fmt.Errorf("invalid %s: must be a UUID", name)
			}
			*dst = &id
		}
	}

	var err error
	if f.DepartureFrom, err = queryTime(r, "departure_from"); err != nil {
		return domain.TripFilters{}, err
	}
	if f.DepartureTo, err = queryTime(r, "departure_to"); err != nil {
		return domain.TripFilters{}, err
	}
	f.ClientName = r.URL.Query().Get("client_name")

	return f, nil
}
