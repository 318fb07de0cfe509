package domain

import (
	"time"

	"github.com/google/uuid"
)

// StopType categorises why the truck stopped.
type StopType string

const (
	StopWaypoint StopType = "waypoint"
	StopRest     StopType = "rest"
	StopFuel     StopType = "fuel"
	StopDelivery StopType = "delivery"
)

// Valid reports whether t is a known stop type.
func (t StopType) Valid() bool {
	switch t {
	case StopWaypoint, StopRest, StopFuel, StopDelivery:
		return true
	}
	return false
}

// TripStop is one entry in a trip's stop sub-ledger.
// DepartedAt is nil while the truck is still at the stop; DurationMinutes is
// derived from departure − arrival once the departure is recorded.
// Stops are append-only: they may be added only while the trip is in_progress
// or delayed, and are never deleted.
type TripStop struct {
	ID              uuid.UUID  `json:"id"`
	TripID          uuid.UUID  `json:"trip_id"`
	Type            StopType   `json:"type"`
	Name            string     `json:"name"`
	Location        string     `json:"location,omitempty"`
	ArrivedAt       time.Time  `json:"arrived_at"`
	DepartedAt      *time.Time `json:"departed_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
