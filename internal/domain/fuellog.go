package domain

import (
	"time"

	"github.com/google/uuid"
)

// FuelLog is a refuelling record for a truck, optionally linked to a trip.
// The trip link is a loose reference: deleting a log never touches the trip
// beyond recomputing its cached fuel figure.
type FuelLog struct {
	ID         uuid.UUID  `json:"id"`
	TruckID    uuid.UUID  `json:"truck_id"`
	TripID     *uuid.UUID `json:"trip_id,omitempty"`
	FilledAt   time.Time  `json:"filled_at"`
	Litres     float64    `json:"litres"`
	TotalCost  float64    `json:"total_cost"`
	OdometerKm float64    `json:"odometer_km"`
	FullTank   bool       `json:"full_tank"`
	Station    string     `json:"station,omitempty"`
	LoggedBy   string     `json:"logged_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// FuelEntry is a fuel log enriched with its point efficiency.
//
// KmPerLitre is set only when both this fill and the truck's immediately
// preceding fill were full-tank fills: between two full tanks the litres
// poured equal the litres burned over the odometer delta. Partial fills make
// point efficiency meaningless, so it stays nil rather than being computed
// incorrectly.
type FuelEntry struct {
	Log        FuelLog  `json:"log"`
	KmPerLitre *float64 `json:"km_per_litre,omitempty"`
}

// FuelSummary is the reconciled view of all refuelling linked to one trip.
type FuelSummary struct {
	TripID              uuid.UUID   `json:"trip_id"`
	TotalLitres         float64     `json:"total_litres"`
	TotalCost           float64     `json:"total_cost"`
	RefillCount         int         `json:"refill_count"`
	AverageCostPerLitre float64     `json:"average_cost_per_litre"` // 0 when no litres recorded
	Logs                []FuelEntry `json:"logs"`
}
