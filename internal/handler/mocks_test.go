package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/tripcore/internal/domain"
	"github.com/fleetops/tripcore/internal/handler"
	"github.com/fleetops/tripcore/internal/service"
)

// Function-field mocks for the servicer interfaces. Set only the methods the
// test expects the handler to call; an unexpected call panics and fails the
// test loudly.

type mockTripServicer struct {
	create      func(ctx context.Context, trip domain.Trip, createdBy string) (domain.Trip, error)
	update      func(ctx context.Context, id uuid.UUID, patch service.TripUpdate, updatedBy string) (domain.Trip, error)
	start       func(ctx context.Context, id uuid.UUID, cmd service.StartTripCmd, userID string) (domain.Trip, error)
	complete    func(ctx context.Context, id uuid.UUID, cmd service.CompleteTripCmd, userID string) (domain.Trip, error)
	markDelayed func(ctx context.Context, id uuid.UUID, reason, userID string) (domain.Trip, error)
	cancel      func(ctx context.Context, id uuid.UUID, reason, userID string) (domain.Trip, error)
	getByID     func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list        func(ctx context.Context, f domain.TripFilters, p domain.PaginationParams) ([]domain.Trip, int64, error)
	statistics  func(ctx context.Context, f domain.TripFilters) (domain.TripStatistics, error)
	auditTrail  func(ctx context.Context, id uuid.UUID) ([]domain.AuditEntry, error)
}

func (m *mockTripServicer) Create(ctx context.Context, trip domain.Trip, createdBy string) (domain.Trip, error) {
	return m.create(ctx, trip, createdBy)
}
func (m *mockTripServicer) Update(ctx context.Context, id uuid.UUID, patch service.TripUpdate, updatedBy string) (domain.Trip, error) {
	return m.update(ctx, id, patch, updatedBy)
}
func (m *mockTripServicer) Start(ctx context.Context, id uuid.UUID, cmd service.StartTripCmd, userID string) (domain.Trip, error) {
	return m.start(ctx, id, cmd, userID)
}
func (m *mockTripServicer) Complete(ctx context.Context, id uuid.UUID, cmd service.CompleteTripCmd, userID string) (domain.Trip, error) {
	return m.complete(ctx, id, cmd, userID)
}
func (m *mockTripServicer) MarkDelayed(ctx context.Context, id uuid.UUID, reason, userID string) (domain.Trip, error) {
	return m.markDelayed(ctx, id, reason, userID)
}
func (m *mockTripServicer) Cancel(ctx context.Context, id uuid.UUID, reason, userID string) (domain.Trip, error) {
	return m.cancel(ctx, id, reason, userID)
}
func (m *mockTripServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripServicer) List(ctx context.Context, f domain.TripFilters, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.list(ctx, f, p)
}
func (m *mockTripServicer) Statistics(ctx context.Context, f domain.TripFilters) (domain.TripStatistics, error) {
	return m.statistics(ctx, f)
}
func (m *mockTripServicer) AuditTrail(ctx context.Context, id uuid.UUID) ([]domain.AuditEntry, error) {
	return m.auditTrail(ctx, id)
}

var _ handler.TripServicer = (*mockTripServicer)(nil)

type mockLedgerServicer struct {
	addStop          func(ctx context.Context, stop domain.TripStop, userID string) (domain.TripStop, error)
	setStopDeparture func(ctx context.Context, tripID, stopID uuid.UUID, departedAt time.Time, userID string) (domain.TripStop, error)
	listStops        func(ctx context.Context, tripID uuid.UUID) ([]domain.TripStop, error)
	addIncident      func(ctx context.Context, inc domain.TripIncident, userID string) (domain.TripIncident, error)
	resolveIncident  func(ctx context.Context, tripID, incidentID uuid.UUID, actualCost *float64, userID string) (domain.TripIncident, error)
	listIncidents    func(ctx context.Context, tripID uuid.UUID) ([]domain.TripIncident, error)
	addTrackingPoint func(ctx context.Context, pt domain.TrackingPoint) (domain.TrackingPoint, error)
	listTracking     func(ctx context.Context, tripID uuid.UUID, rng domain.TimeRange) ([]domain.TrackingPoint, error)
}

func (m *mockLedgerServicer) AddStop(ctx context.Context, stop domain.TripStop, userID string) (domain.TripStop, error) {
	return m.addStop(ctx, stop, userID)
}
func (m *mockLedgerServicer) SetStopDeparture(ctx context.Context, tripID, stopID uuid.UUID, departedAt time.Time, userID string) (domain.TripStop, error) {
	return m.setStopDeparture(ctx, tripID, stopID, departedAt, userID)
}
func (m *mockLedgerServicer) ListStops(ctx context.Context, tripID uuid.UUID) ([]domain.TripStop, error) {
	return m.listStops(ctx, tripID)
}
func (m *mockLedgerServicer) AddIncident(ctx context.Context, inc domain.TripIncident, userID string) (domain.TripIncident, error) {
	return m.addIncident(ctx, inc, userID)
}
func (m *mockLedgerServicer) ResolveIncident(ctx context.Context, tripID, incidentID uuid.UUID, actualCost *float64, userID string) (domain.TripIncident, error) {
	return m.resolveIncident(ctx, tripID, incidentID, actualCost, userID)
}
func (m *mockLedgerServicer) ListIncidents(ctx context.Context, tripID uuid.UUID) ([]domain.TripIncident, error) {
	return m.listIncidents(ctx, tripID)
}
func (m *mockLedgerServicer) AddTrackingPoint(ctx context.Context, pt domain.TrackingPoint) (domain.TrackingPoint, error) {
	return m.addTrackingPoint(ctx, pt)
}
func (m *mockLedgerServicer) ListTracking(ctx context.Context, tripID uuid.UUID, rng domain.TimeRange) ([]domain.TrackingPoint, error) {
	return m.listTracking(ctx, tripID, rng)
}

var _ handler.LedgerServicer = (*mockLedgerServicer)(nil)

type mockFuelServicer struct {
	tripSummary func(ctx context.Context, tripID uuid.UUID) (domain.FuelSummary, error)
	addLog      func(ctx context.Context, log domain.FuelLog, userID string) (domain.FuelLog, error)
	removeLog   func(ctx context.Context, id uuid.UUID, userID string) error
}

func (m *mockFuelServicer) TripSummary(ctx context.Context, tripID uuid.UUID) (domain.FuelSummary, error) {
	return m.tripSummary(ctx, tripID)
}
func (m *mockFuelServicer) AddLog(ctx context.Context, log domain.FuelLog, userID string) (domain.FuelLog, error) {
	return m.addLog(ctx, log, userID)
}
func (m *mockFuelServicer) RemoveLog(ctx context.Context, id uuid.UUID, userID string) error {
	return m.removeLog(ctx, id, userID)
}

var _ handler.FuelServicer = (*mockFuelServicer)(nil)

// serve routes one request through the full chi router and records the response.
func serve(trips handler.TripServicer, ledger handler.LedgerServicer, fuel handler.FuelServicer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.NewServer(trips, ledger, fuel).Routes().ServeHTTP(rec, req)
	return rec
}
