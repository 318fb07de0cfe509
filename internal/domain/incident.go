package domain

import (
	"time"

	"github.com/google/uuid"
)

// IncidentSeverity is the four-tier severity scale for trip incidents.
type IncidentSeverity string

const (
	SeverityLow      IncidentSeverity = "low"
	SeverityMedium   IncidentSeverity = "medium"
	SeverityHigh     IncidentSeverity = "high"
	SeverityCritical IncidentSeverity = "critical"
)

// Valid reports whether s is a known severity.
func (s IncidentSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ForcesDelay reports whether an incident of this severity, reported while
// the trip is in progress, pushes the trip into the delayed status.
func (s IncidentSeverity) ForcesDelay() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// IncidentType categorises what went wrong.
type IncidentType string

const (
	IncidentAccident  IncidentType = "accident"
	IncidentBreakdown IncidentType = "breakdown"
	IncidentDelay     IncidentType = "delay"
	IncidentTheft     IncidentType = "theft"
	IncidentOther     IncidentType = "other"
)

// Valid reports whether t is a known incident type.
func (t IncidentType) Valid() bool {
	switch t {
	case IncidentAccident, IncidentBreakdown, IncidentDelay, IncidentTheft, IncidentOther:
		return true
	}
	return false
}

// TripIncident is one entry in a trip's incident sub-ledger: an unplanned
// event reported during the trip. Incidents are never deleted; resolution is
// recorded in place, exactly once, with an optional actual cost.
type TripIncident struct {
	ID          uuid.UUID        `json:"id"`
	TripID      uuid.UUID        `json:"trip_id"`
	Type        IncidentType     `json:"type"`
	Severity    IncidentSeverity `json:"severity"`
	Description string           `json:"description"`
	OccurredAt  time.Time        `json:"occurred_at"`
	Resolved    bool             `json:"resolved"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
	ActualCost  *float64         `json:"actual_cost,omitempty"`
	ReportedBy  string           `json:"reported_by"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
