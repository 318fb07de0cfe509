package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/tripcore/internal/domain"
)

// AddFuelLogRequest is the body for POST /fuel-logs.
type AddFuelLogRequest struct {
	TruckID    uuid.UUID  `json:"truck_id"`
	TripID     *uuid.UUID `json:"trip_id,omitempty"`
	FilledAt   time.Time  `json:"filled_at"`
	Litres     float64    `json:"litres"`
	TotalCost  float64    `json:"total_cost"`
	OdometerKm float64    `json:"odometer_km"`
	FullTank   bool       `json:"full_tank"`
	Station    string     `json:"station,omitempty"`
}

// GetTripFuel handles GET /trips/{id}/fuel.
func (s *Server) GetTripFuel(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	summary, err := s.fuel.TripSummary(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// AddFuelLog handles POST /fuel-logs.
func (s *Server) AddFuelLog(w http.ResponseWriter, r *http.Request) {
	user, err := actingUser(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req AddFuelLogRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	log := domain.FuelLog{
		TruckID:    req.TruckID,
		TripID:     req.TripID,
		FilledAt:   req.FilledAt,
		Litres:     req.Litres,
		TotalCost:  req.TotalCost,
		OdometerKm: req.OdometerKm,
		FullTank:   req.FullTank,
		Station:    req.Station,
	}

	created, err := s.fuel.AddLog(r.Context(), log, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// RemoveFuelLog handles DELETE /fuel-logs/{id}.
func (s *Server) RemoveFuelLog(w http.ResponseWriter, r *http.Request) {
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

	if err := s.fuel.RemoveLog(r.Context(), id, user); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
