package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrackingPoint is a single GPS sample attached to a trip. The tracking
// ledger is append-only and queryable by time range; samples carry no
// invariants relative to trip status beyond belonging to an existing trip.
type TrackingPoint struct {
	ID         uuid.UUID `json:"id"`
	TripID     uuid.UUID `json:"trip_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AltitudeM  *float64  `json:"altitude_m,omitempty"`
	SpeedKmh   *float64  `json:"speed_kmh,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TimeRange bounds a tracking query. Nil ends are open.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}
