// Package handler implements the HTTP handlers for the freight trip service.
// All handlers are methods on Server; they decode requests, delegate to the
// service layer, and map domain sentinel errors to HTTP statuses. Methods are
// split into domain-specific files (trip.go, ledger.go, fuel.go) but all
// share the same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/tripcore/internal/domain"
	"github.com/fleetops/tripcore/internal/service"
)

// TripServicer defines the trip lifecycle operations the handler depends on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip, createdBy string) (domain.Trip, error)
	Update(ctx context.Context, id uuid.UUID, patch service.TripUpdate, updatedBy string) (domain.Trip, error)
	Start(ctx context.Context, id uuid.UUID, cmd service.StartTripCmd, userID string) (domain.Trip, error)
	Complete(ctx context.Context, id uuid.UUID, cmd service.CompleteTripCmd, userID string) (domain.Trip, error)
	MarkDelayed(ctx context.Context, id uuid.UUID, reason, userID string) (domain.Trip, error)
	Cancel(ctx context.Context, id uuid.UUID, reason, userID string) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, f domain.TripFilters, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Statistics(ctx context.Context, f domain.TripFilters) (domain.TripStatistics, error)
	AuditTrail(ctx context.Context, id uuid.UUID) ([]domain.AuditEntry, error)
}

// LedgerServicer defines the sub-ledger operations the handler depends on.
type LedgerServicer interface {
	AddStop(ctx context.Context, stop domain.TripStop, userID string) (domain.TripStop, error)
	SetStopDeparture(ctx context.Context, tripID, stopID uuid.UUID, departedAt time.Time, userID string) (domain.TripStop, error)
	ListStops(ctx context.Context, tripID uuid.UUID) ([]domain.TripStop, error)
	AddIncident(ctx context.Context, inc domain.TripIncident, userID string) (domain.TripIncident, error)
	ResolveIncident(ctx context.Context, tripID, incidentID uuid.UUID, actualCost *float64, userID string) (domain.TripIncident, error)
	ListIncidents(ctx context.Context, tripID uuid.UUID) ([]domain.TripIncident, error)
	AddTrackingPoint(ctx context.Context, pt domain.TrackingPoint) (domain.TrackingPoint, error)
	ListTracking(ctx context.Context, tripID uuid.UUID, rng domain.TimeRange) ([]domain.TrackingPoint, error)
}

// FuelServicer defines the fuel reconciliation operations the handler depends on.
type FuelServicer interface {
	TripSummary(ctx context.Context, tripID uuid.UUID) (domain.FuelSummary, error)
	AddLog(ctx context.Context, log domain.FuelLog, userID string) (domain.FuelLog, error)
	RemoveLog(ctx context.Context, id uuid.UUID, userID string) error
}

// Server holds the service dependencies for all API endpoints.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	trips  TripServicer
	ledger LedgerServicer
	fuel   FuelServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, ledger LedgerServicer, fuel FuelServicer) *Server {
	return &Server{trips: trips, ledger: ledger, fuel: fuel}
}
