package domain

import (
	"time"

	"github.com/google/uuid"
)

// Truck is master data owned elsewhere. This service reads it to validate
// trip bindings and writes it in exactly one place: propagating odometer and
// engine-hour readings when a trip completes.
type Truck struct {
	ID          uuid.UUID `json:"id"`
	PlateNumber string    `json:"plate_number"`
	Model       string    `json:"model,omitempty"`
	OdometerKm  float64   `json:"odometer_km"`
	EngineHours float64   `json:"engine_hours"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Driver is master data owned elsewhere; read-only here.
type Driver struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	LicenceNumber string    `json:"licence_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
