// Package domain contains the core data types for the freight trip service.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is the operational state of a trip. See the transition table in
// CanTransition for which moves are legal.
type TripStatus string

const (
	StatusScheduled  TripStatus = "scheduled"
	StatusInProgress TripStatus = "in_progress"
	StatusDelayed    TripStatus = "delayed"
	StatusCompleted  TripStatus = "completed"
	StatusCancelled  TripStatus = "cancelled"
)

// allowedTransitions is the directed graph of legal status moves.
// completed and cancelled are terminal: no outgoing edges.
var allowedTransitions = map[TripStatus][]TripStatus{
	StatusScheduled:  {StatusInProgress, StatusDelayed, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusDelayed, StatusCancelled},
	StatusDelayed:    {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether from → to is a legal status move.
// Unlike some state machines, from == to is NOT allowed: every transition
// must represent a genuine status change.
func CanTransition(from, to TripStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s TripStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is one of the five known statuses.
func (s TripStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Trip is the aggregate root: a single scheduled movement of a truck,
// driver(s), and cargo between a departure and an arrival.
//
// Actuals (ActualDeparture, OdometerStart, ...) are nil until the
// corresponding state transition populates them. Derived metrics
// (ActualDistanceKm, AverageSpeedKmh, ...) are computed at completion and
// never directly settable by callers.
type Trip struct {
	ID         uuid.UUID  `json:"id"`
	TripNumber string     `json:"trip_number"` // caller-supplied, unique, immutable
	RouteID    uuid.UUID  `json:"route_id"`
	TruckID    uuid.UUID  `json:"truck_id"`
	DriverID   uuid.UUID  `json:"driver_id"`
	CoDriverID *uuid.UUID `json:"co_driver_id,omitempty"` // must differ from DriverID

	Status TripStatus `json:"status"`

	ScheduledDeparture time.Time  `json:"scheduled_departure"`
	ScheduledArrival   *time.Time `json:"scheduled_arrival,omitempty"`

	ActualDeparture  *time.Time `json:"actual_departure,omitempty"`
	ActualArrival    *time.Time `json:"actual_arrival,omitempty"`
	OdometerStart    *float64   `json:"odometer_start,omitempty"`
	OdometerEnd      *float64   `json:"odometer_end,omitempty"`
	EngineHoursStart *float64   `json:"engine_hours_start,omitempty"`
	EngineHoursEnd   *float64   `json:"engine_hours_end,omitempty"`

	ActualDistanceKm   *float64 `json:"actual_distance_km,omitempty"`
	ActualEngineHours  *float64 `json:"actual_engine_hours,omitempty"`
	AverageSpeedKmh    *float64 `json:"average_speed_kmh,omitempty"`
	FuelConsumedLitres *float64 `json:"fuel_consumed_litres,omitempty"`

	CargoDescription   string   `json:"cargo_description,omitempty"`
	CargoWeightKg      *float64 `json:"cargo_weight_kg,omitempty"`
	ClientName         string   `json:"client_name,omitempty"`
	DeliveryNote       string   `json:"delivery_note,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	DelayReason        string   `json:"delay_reason,omitempty"`
	CancellationReason string   `json:"cancellation_reason,omitempty"`

	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Window returns the conflict window during which the trip's truck and
// driver(s) are considered committed.
func (t Trip) Window() Window {
	return Window{Start: t.ScheduledDeparture, End: t.ScheduledArrival}
}

// DefaultWindowLength is the assumed booking length of a trip whose
// scheduled arrival is unknown. Most legs complete within a day, so an
// open-ended trip blocks its resources for 24 hours, a conservative,
// overlap-prone default.
const DefaultWindowLength = 24 * time.Hour

// Window is a time interval used for double-booking checks.
// End may be nil, in which case the window defaults to
// Start + DefaultWindowLength.
type Window struct {
	Start time.Time
	End   *time.Time
}

// EffectiveEnd returns the window's end, substituting the 24-hour default
// when no end is set.
func (w Window) EffectiveEnd() time.Time {
	if w.End != nil {
		return *w.End
	}
	return w.Start.Add(DefaultWindowLength)
}

// Overlaps reports whether two windows overlap.
//
// Boundary convention: exclusive at shared endpoints. A trip ending at 12:00
// does not conflict with one starting at 12:00; back-to-back legs on the
// same truck are a normal dispatch pattern. The repo layer's conflict query
// applies the same convention in SQL.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.EffectiveEnd()) && other.Start.Before(w.EffectiveEnd())
}
