package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the service. One distinct action per
// state-changing operation.
const (
	ActionTripCreated     = "TRIP_CREATED"
	ActionTripUpdated     = "TRIP_UPDATED"
	ActionTripStarted     = "TRIP_STARTED"
	ActionTripCompleted   = "TRIP_COMPLETED"
	ActionTripDelayed     = "TRIP_DELAYED"
	ActionTripCancelled   = "TRIP_CANCELLED"
	ActionStopAdded       = "STOP_ADDED"
	ActionStopDeparted    = "STOP_DEPARTED"
	ActionIncidentReport  = "INCIDENT_REPORTED"
	ActionIncidentResolve = "INCIDENT_RESOLVED"
	ActionFuelLogAdded    = "FUEL_LOG_ADDED"
	ActionFuelLogRemoved  = "FUEL_LOG_REMOVED"
)

// AuditEntry is one append-only record of a state-changing operation.
// Audit writes are fire-and-forget: a failure to record one is logged for
// operators but never rolls back the operation it describes.
type AuditEntry struct {
	ID          uuid.UUID `json:"id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	EntityType  string    `json:"entity_type"`
	EntityID    uuid.UUID `json:"entity_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
