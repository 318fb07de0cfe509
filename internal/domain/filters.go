package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripFilters is the exhaustive set of supported trip list filters.
// Every filter is statically known; there is deliberately no open
// map of arbitrary keys. Nil / empty fields are ignored.
type TripFilters struct {
	Status        *TripStatus
	TruckID       *uuid.UUID
	DriverID      *uuid.UUID
	RouteID       *uuid.UUID
	DepartureFrom *time.Time
	DepartureTo   *time.Time
	ClientName    string // exact match, ignored when empty
}

// TripStatistics is the aggregate view over a filtered set of trips.
type TripStatistics struct {
	TotalTrips       int64                `json:"total_trips"`
	ByStatus         map[TripStatus]int64 `json:"by_status"`
	TotalDistanceKm  float64              `json:"total_distance_km"`
	TotalFuelLitres  float64              `json:"total_fuel_litres"`
	TotalEngineHours float64              `json:"total_engine_hours"`
	AverageSpeedKmh  float64              `json:"average_speed_kmh"` // mean over completed trips, 0 when none
}
