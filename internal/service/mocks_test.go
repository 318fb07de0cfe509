package service_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/tripcore/internal/domain"
	"github.com/fleetops/tripcore/internal/repo"
	"github.com/fleetops/tripcore/internal/service"
)

// Hand-written test doubles for the repo interfaces.
// Each method is a function field — set only the ones your test needs.
// This is idiomatic Go: no mock generation library required for simple cases.

type mockTripRepo struct {
	create           func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID          func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	getByIDForUpdate func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	findConflicting  func(ctx context.Context, truckID, driverID uuid.UUID, coDriverID, excludeID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Trip, error)
	update           func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	setFuelConsumed  func(ctx context.Context, id uuid.UUID, litres float64) error
	list             func(ctx context.Context, f domain.TripFilters, p domain.PaginationParams) ([]domain.Trip, int64, error)
	stats            func(ctx context.Context, f domain.TripFilters) (domain.TripStatistics, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByIDForUpdate(ctx, id)
}
func (m *mockTripRepo) FindConflicting(ctx context.Context, truckID, driverID uuid.UUID, coDriverID, excludeID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Trip, error) {
	return m.findConflicting(ctx, truckID, driverID, coDriverID, excludeID, windowStart, windowEnd)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) SetFuelConsumed(ctx context.Context, id uuid.UUID, litres float64) error {
	return m.setFuelConsumed(ctx, id, litres)
}
func (m *mockTripRepo) List(ctx context.Context, f domain.TripFilters, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.list(ctx, f, p)
}
func (m *mockTripRepo) Stats(ctx context.Context, f domain.TripFilters) (domain.TripStatistics, error) {
	return m.stats(ctx, f)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

type mockStopRepo struct {
	create       func(ctx context.Context, stop domain.TripStop) (domain.TripStop, error)
	getByID      func(ctx context.Context, tripID, stopID uuid.UUID) (domain.TripStop, error)
	listByTripID func(ctx context.Context, tripID uuid.UUID) ([]domain.TripStop, error)
	setDeparture func(ctx context.Context, tripID, stopID uuid.UUID, departedAt time.Time, durationMinutes int) (domain.TripStop, error)
}

func (m *mockStopRepo) Create(ctx context.Context, stop domain.TripStop) (domain.TripStop, error) {
	return m.create(ctx, stop)
}
func (m *mockStopRepo) GetByID(ctx context.Context, tripID, stopID uuid.UUID) (domain.TripStop, error) {
	return m.getByID(ctx, tripID, stopID)
}
func (m *mockStopRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.TripStop, error) {
	return m.listByTripID(ctx, tripID)
}
func (m *mockStopRepo) SetDeparture(ctx context.Context, tripID, stopID uuid.UUID, departedAt time.Time, durationMinutes int) (domain.TripStop, error) {
	return m.setDeparture(ctx, tripID, stopID, departedAt, durationMinutes)
}

var _ repo.StopRepo = (*mockStopRepo)(nil)

type mockIncidentRepo struct {
	create       func(ctx context.Context, inc domain.TripIncident) (domain.TripIncident, error)
	getByID      func(ctx context.Context, tripID, incidentID uuid.UUID) (domain.TripIncident, error)
	listByTripID func(ctx context.Context, tripID uuid.UUID) ([]domain.TripIncident, error)
	resolve      func(ctx context.Context, tripID, incidentID uuid.UUID, resolvedAt time.Time, actualCost *float64) (domain.TripIncident, error)
}

func (m *mockIncidentRepo) Create(ctx context.Context, inc domain.TripIncident) (domain.TripIncident, error) {
	return m.create(ctx, inc)
}
func (m *mockIncidentRepo) GetByID(ctx context.Context, tripID, incidentID uuid.UUID) (domain.TripIncident, error) {
	return m.getByID(ctx, tripID, incidentID)
}
func (m *mockIncidentRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.TripIncident, error) {
	return m.listByTripID(ctx, tripID)
}
func (m *mockIncidentRepo) Resolve(ctx context.Context, tripID, incidentID uuid.UUID, resolvedAt time.Time, actualCost *float64) (domain.TripIncident, error) {
	return m.resolve(ctx, tripID, incidentID, resolvedAt, actualCost)
}

var _ repo.IncidentRepo = (*mockIncidentRepo)(nil)

type mockTrackingRepo struct {
	create       func(ctx context.Context, pt domain.TrackingPoint) (domain.TrackingPoint, error)
	listByTripID func(ctx context.Context, tripID uuid.UUID, rng domain.TimeRange) ([]domain.TrackingPoint, error)
}

func (m *mockTrackingRepo) Create(ctx context.Context, pt domain.TrackingPoint) (domain.TrackingPoint, error) {
	return m.create(ctx, pt)
}
func (m *mockTrackingRepo) ListByTripID(ctx context.Context, tripID uuid.UUID, rng domain.TimeRange) ([]domain.TrackingPoint, error) {
	return m.listByTripID(ctx, tripID, rng)
}

var _ repo.TrackingRepo = (*mockTrackingRepo)(nil)

type mockFuelLogRepo struct {
	create           func(ctx context.Context, log domain.FuelLog) (domain.FuelLog, error)
	getByID          func(ctx context.Context, id uuid.UUID) (domain.FuelLog, error)
	listByTripID     func(ctx context.Context, tripID uuid.UUID) ([]domain.FuelLog, error)
	previousForTruck func(ctx context.Context, truckID uuid.UUID, before time.Time, excludeID uuid.UUID) (domain.FuelLog, error)
	delete           func(ctx context.Context, id uuid.UUID) error
}

func (m *mockFuelLogRepo) Create(ctx context.Context, log domain.FuelLog) (domain.FuelLog, error) {
	return m.create(ctx, log)
}
func (m *mockFuelLogRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.FuelLog, error) {
	return m.getByID(ctx, id)
}
func (m *mockFuelLogRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.FuelLog, error) {
	return m.listByTripID(ctx, tripID)
}
func (m *mockFuelLogRepo) PreviousForTruck(ctx context.Context, truckID uuid.UUID, before time.Time, excludeID uuid.UUID) (domain.FuelLog, error) {
	return m.previousForTruck(ctx, truckID, before, excludeID)
}
func (m *mockFuelLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ repo.FuelLogRepo = (*mockFuelLogRepo)(nil)

type mockTruckRepo struct {
	getByID      func(ctx context.Context, id uuid.UUID) (domain.Truck, error)
	updateMeters func(ctx context.Context, id uuid.UUID, odometerKm, engineHours float64) error
}

func (m *mockTruckRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Truck, error) {
	return m.getByID(ctx, id)
}
func (m *mockTruckRepo) UpdateMeters(ctx context.Context, id uuid.UUID, odometerKm, engineHours float64) error {
	return m.updateMeters(ctx, id, odometerKm, engineHours)
}

var _ repo.TruckRepo = (*mockTruckRepo)(nil)

type mockDriverRepo struct {
	getByID func(ctx context.Context, id uuid.UUID) (domain.Driver, error)
}

func (m *mockDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	return m.getByID(ctx, id)
}

var _ repo.DriverRepo = (*mockDriverRepo)(nil)

// auditRecorder captures the entries the services emit so tests can assert on
// the resulting audit trail.
type auditRecorder struct {
	entries []domain.AuditEntry
}

func (a *auditRecorder) Create(_ context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	a.entries = append(a.entries, entry)
	return entry, nil
}

func (a *auditRecorder) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for _, e := range a.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *auditRecorder) actions() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

var _ repo.AuditRepo = (*auditRecorder)(nil)

// stubUnitOfWork runs fn directly over a fixed set of repos. The services'
// business rules are what these tests assert on; transaction boundaries are
// covered by the repo integration tests.
type stubUnitOfWork struct {
	repos repo.Repos
}

func (u stubUnitOfWork) Run(_ context.Context, fn func(r repo.Repos) error) error {
	return fn(u.repos)
}

var _ repo.UnitOfWork = stubUnitOfWork{}

// ---- fixture ---------------------------------------------------------------

// fix bundles one mock per repo. newFix wires workable defaults (existing
// master data, echoing writes, no conflicts); tests override just the fields
// they care about before building a service.
type fix struct {
	trips     *mockTripRepo
	stops     *mockStopRepo
	incidents *mockIncidentRepo
	tracking  *mockTrackingRepo
	fuelLogs  *mockFuelLogRepo
	trucks    *mockTruckRepo
	drivers   *mockDriverRepo
	audit     *auditRecorder
}

func newFix() *fix {
	return &fix{
		trips: &mockTripRepo{
			create: func(_ context.Context, t domain.Trip) (domain.Trip, error) {
				t.ID = uuid.New()
				return t, nil
			},
			update: func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil },
			findConflicting: func(_ context.Context, _, _ uuid.UUID, _, _ *uuid.UUID, _, _ time.Time) ([]domain.Trip, error) {
				return nil, nil
			},
		},
		stops: &mockStopRepo{
			create: func(_ context.Context, s domain.TripStop) (domain.TripStop, error) {
				s.ID = uuid.New()
				return s, nil
			},
		},
		incidents: &mockIncidentRepo{
			create: func(_ context.Context, i domain.TripIncident) (domain.TripIncident, error) {
				i.ID = uuid.New()
				return i, nil
			},
		},
		tracking: &mockTrackingRepo{
			create: func(_ context.Context, p domain.TrackingPoint) (domain.TrackingPoint, error) {
				p.ID = uuid.New()
				return p, nil
			},
		},
		fuelLogs: &mockFuelLogRepo{
			create: func(_ context.Context, l domain.FuelLog) (domain.FuelLog, error) {
				l.ID = uuid.New()
				return l, nil
			},
			listByTripID: func(_ context.Context, _ uuid.UUID) ([]domain.FuelLog, error) { return nil, nil },
		},
		trucks: &mockTruckRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Truck, error) {
				return domain.Truck{ID: id}, nil
			},
			updateMeters: func(_ context.Context, _ uuid.UUID, _, _ float64) error { return nil },
		},
		drivers: &mockDriverRepo{
			getByID: func(_ context.Context, id uuid.UUID) (domain.Driver, error) {
				return domain.Driver{ID: id}, nil
			},
		},
		audit: &auditRecorder{},
	}
}

func (f *fix) repos() repo.Repos {
	return repo.Repos{
		Trips:     f.trips,
		Stops:     f.stops,
		Incidents: f.incidents,
		Tracking:  f.tracking,
		FuelLogs:  f.fuelLogs,
		Trucks:    f.trucks,
		Drivers:   f.drivers,
		Audit:     f.audit,
	}
}

func (f *fix) emitter() *service.Emitter {
	return service.NewEmitter(f.audit, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (f *fix) tripService() *service.TripService {
	r := f.repos()
	return service.NewTripService(stubUnitOfWork{repos: r}, r, f.emitter())
}

func (f *fix) ledgerService() *service.LedgerService {
	r := f.repos()
	return service.NewLedgerService(stubUnitOfWork{repos: r}, r, f.emitter())
}

func (f *fix) fuelService() *service.FuelService {
	r := f.repos()
	return service.NewFuelService(stubUnitOfWork{repos: r}, r, f.emitter())
}
