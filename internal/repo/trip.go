package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fleetops/tripcore/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	// Returns domain.ErrValidation if the trip number is already taken.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// GetByIDForUpdate is GetByID plus a row lock (SELECT ... FOR UPDATE).
	// Call it at the start of every state transition, inside a transaction,
	// so concurrent transitions on the same trip serialize and guard checks
	// never run against a stale status.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// FindConflicting returns active trips (scheduled, in_progress, delayed)
	// whose conflict window overlaps [windowStart, windowEnd) and which share
	// the given truck, or share a person with the driver/co-driver pair in
	// either seat. A trip with no scheduled arrival blocks its resources for
	// 24 hours from departure. Overlap is exclusive at shared endpoints.
	// excludeID, when non-nil, omits that trip (used by updates re-checking
	// their own booking).
	FindConflicting(ctx context.Context, truckID, driverID uuid.UUID, coDriverID, excludeID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Trip, error)

	// Update overwrites the mutable fields of an existing trip and returns
	// the updated record. Returns domain.ErrNotFound if no trip with that ID
	// exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// SetFuelConsumed overwrites only the cached fuel figure of a trip.
	SetFuelConsumed(ctx context.Context, id uuid.UUID, litres float64) error

	// List returns one page of trips matching the filters, ordered by
	// scheduled_departure descending, plus the total match count.
	List(ctx context.Context, f domain.TripFilters, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Stats aggregates status counts and completion metrics over all trips
	// matching the filters.
	Stats(ctx context.Context, f domain.TripFilters) (domain.TripStatistics, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

// tripColumns is the canonical select list, kept in one place so every query
// scans with the same shape.
const tripColumns = `id, trip_number, route_id, truck_id, driver_id, co_driver_id, status,
		scheduled_departure, scheduled_arrival, actual_departure, actual_arrival,
		odometer_start, odometer_end, engine_hours_start, engine_hours_end,
		actual_distance_km, actual_engine_hours, average_speed_kmh, fuel_consumed_litres,
		cargo_description, cargo_weight_kg, client_name, delivery_note, notes,
		delay_reason, cancellation_reason, created_by, updated_by, created_at, updated_at`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (
			trip_number, route_id, truck_id, driver_id, co_driver_id, status,
			scheduled_departure, scheduled_arrival,
			cargo_description, cargo_weight_kg, client_name, delivery_note, notes,
			created_by
		)
		VALUES (
			@trip_number, @route_id, @truck_id, @driver_id, @co_driver_id, @status,
			@scheduled_departure, @scheduled_arrival,
			@cargo_description, @cargo_weight_kg, @client_name, @delivery_note, @notes,
			@created_by
		)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"trip_number":         trip.TripNumber,
		"route_id":            trip.RouteID,
		"truck_id":            trip.TruckID,
		"driver_id":           trip.DriverID,
		"co_driver_id":        trip.CoDriverID, // nil becomes NULL
		"status":              string(trip.Status),
		"scheduled_departure": trip.ScheduledDeparture,
		"scheduled_arrival":   trip.ScheduledArrival,
		"cargo_description":   trip.CargoDescription,
		"cargo_weight_kg":     trip.CargoWeightKg,
		"client_name":         trip.ClientName,
		"delivery_note":       trip.DeliveryNote,
		"notes":               trip.Notes,
		"created_by":          trip.CreatedBy,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		if isUniqueViolation(err, "trips_trip_number_key") {
			return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w: trip number %q already exists", domain.ErrValidation, trip.TripNumber)
		}
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id FOR UPDATE`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByIDForUpdate: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) FindConflicting(ctx context.Context, truckID, driverID uuid.UUID, coDriverID, excludeID *uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Trip, error) {
	// The COALESCE mirrors domain.Window.EffectiveEnd: an open-ended trip
	// blocks its resources for 24 hours. Strict inequalities make shared
	// endpoints conflict-free (back-to-back legs are allowed).
	q := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE status IN ('scheduled', 'in_progress', 'delayed')
		  AND (@exclude_id::uuid IS NULL OR id <> @exclude_id)
		  AND (
			truck_id = @truck_id
			OR driver_id = @driver_id OR co_driver_id = @driver_id
			OR (@co_driver_id::uuid IS NOT NULL
				AND (driver_id = @co_driver_id OR co_driver_id = @co_driver_id))
		  )
		  AND scheduled_departure < @window_end
		  AND COALESCE(scheduled_arrival, scheduled_departure + INTERVAL '24 hours') > @window_start
		ORDER BY scheduled_departure`

	args := pgx.NamedArgs{
		"truck_id":     truckID,
		"driver_id":    driverID,
		"co_driver_id": coDriverID,
		"exclude_id":   excludeID,
		"window_start": windowStart,
		"window_end":   windowEnd,
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.FindConflicting: %w", err)
	}
	defer rows.Close()

	return collectTrips(rows, "repo.TripRepo.FindConflicting")
}

func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const qBody = `
		UPDATE trips
		SET route_id            = @route_id,
		    truck_id            = @truck_id,
		    driver_id           = @driver_id,
		    co_driver_id        = @co_driver_id,
		    status              = @status,
		    scheduled_departure = @scheduled_departure,
		    scheduled_arrival   = @scheduled_arrival,
		    actual_departure    = @actual_departure,
		    actual_arrival      = @actual_arrival,
		    odometer_start      = @odometer_start,
		    odometer_end        = @odometer_end,
		    engine_hours_start  = @engine_hours_start,
		    engine_hours_end    = @engine_hours_end,
		    actual_distance_km  = @actual_distance_km,
		    actual_engine_hours = @actual_engine_hours,
		    average_speed_kmh   = @average_speed_kmh,
		    fuel_consumed_litres = @fuel_consumed_litres,
		    cargo_description   = @cargo_description,
		    cargo_weight_kg     = @cargo_weight_kg,
		    client_name         = @client_name,
		    delivery_note       = @delivery_note,
		    notes               = @notes,
		    delay_reason        = @delay_reason,
		    cancellation_reason = @cancellation_reason,
		    updated_by          = @updated_by,
		    updated_at          = now()
		WHERE id = @id
		RETURNING `

	args := pgx.NamedArgs{
		"id":                   trip.ID,
		"route_id":             trip.RouteID,
		"truck_id":             trip.TruckID,
		"driver_id":            trip.DriverID,
		"co_driver_id":         trip.CoDriverID,
		"status":               string(trip.Status),
		"scheduled_departure":  trip.ScheduledDeparture,
		"scheduled_arrival":    trip.ScheduledArrival,
		"actual_departure":     trip.ActualDeparture,
		"actual_arrival":       trip.ActualArrival,
		"odometer_start":       trip.OdometerStart,
		"odometer_end":         trip.OdometerEnd,
		"engine_hours_start":   trip.EngineHoursStart,
		"engine_hours_end":     trip.EngineHoursEnd,
		"actual_distance_km":   trip.ActualDistanceKm,
		"actual_engine_hours":  trip.ActualEngineHours,
		"average_speed_kmh":    trip.AverageSpeedKmh,
		"fuel_consumed_litres": trip.FuelConsumedLitres,
		"cargo_description":    trip.CargoDescription,
		"cargo_weight_kg":      trip.CargoWeightKg,
		"client_name":          trip.ClientName,
		"delivery_note":        trip.DeliveryNote,
		"notes":                trip.Notes,
		"delay_reason":         trip.DelayReason,
		"cancellation_reason":  trip.CancellationReason,
		"updated_by":           trip.UpdatedBy,
	}

	row := r.db.QueryRow(ctx, qBody+tripColumns, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) SetFuelConsumed(ctx context.Context, id uuid.UUID, litres float64) error {
	const q = `
		UPDATE trips
		SET fuel_consumed_litres = @litres, updated_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "litres": litres})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.SetFuelConsumed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.SetFuelConsumed: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTripRepo) List(ctx context.Context, f domain.TripFilters, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	where, args := tripFilterClause(f)

	var total int64
	countQ := `SELECT count(*) FROM trips` + where
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: count: %w", err)
	}

	args["limit"] = p.Limit
	args["offset"] = p.Offset()
	q := `SELECT ` + tripColumns + ` FROM trips` + where +
		` ORDER BY scheduled_departure DESC LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	defer rows.Close()

	trips, err := collectTrips(rows, "repo.TripRepo.List")
	if err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

func (r *pgTripRepo) Stats(ctx context.Context, f domain.TripFilters) (domain.TripStatistics, error) {
	where, args := tripFilterClause(f)

	q := `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'scheduled'),
		       count(*) FILTER (WHERE status = 'in_progress'),
		       count(*) FILTER (WHERE status = 'delayed'),
		       count(*) FILTER (WHERE status = 'completed'),
		       count(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(sum(actual_distance_km), 0),
		       COALESCE(sum(fuel_consumed_litres), 0),
		       COALESCE(sum(actual_engine_hours), 0),
		       COALESCE(avg(average_speed_kmh) FILTER (WHERE status = 'completed'), 0)
		FROM trips` + where

	var (
		stats     domain.TripStatistics
		scheduled, inProgress, delayed, completed, cancelled int64
	)
	err := r.db.QueryRow(ctx, q, args).Scan(
		&stats.TotalTrips,
		&scheduled, &inProgress, &delayed, &completed, &cancelled,
		&stats.TotalDistanceKm,
		&stats.TotalFuelLitres,
		&stats.TotalEngineHours,
		&stats.AverageSpeedKmh,
	)
	if err != nil {
		return domain.TripStatistics{}, fmt.Errorf("repo.TripRepo.Stats: %w", err)
	}

	stats.ByStatus = map[domain.TripStatus]int64{
		domain.StatusScheduled:  scheduled,
		domain.StatusInProgress: inProgress,
		domain.StatusDelayed:    delayed,
		domain.StatusCompleted:  completed,
		domain.StatusCancelled:  cancelled,
	}
	return stats, nil
}

// tripFilterClause renders the WHERE clause for the exhaustive filter struct.
// Returns an empty string when no filter is set.
func tripFilterClause(f domain.TripFilters) (string, pgx.NamedArgs) {
	var conds []string
	args := pgx.NamedArgs{}

	if f.Status != nil {
		conds = append(conds, "status = @f_status")
		args["f_status"] = string(*f.Status)
	}
	if f.TruckID != nil {
		conds = append(conds, "truck_id = @f_truck_id")
		args["f_truck_id"] = *f.TruckID
	}
	if f.DriverID != nil {
		conds = append(conds, "(driver_id = @f_driver_id OR co_driver_id = @f_driver_id)")
		args["f_driver_id"] = *f.DriverID
	}
	if f.RouteID != nil {
		conds = append(conds, "route_id = @f_route_id")
		args["f_route_id"] = *f.RouteID
	}
	if f.DepartureFrom != nil {
		conds = append(conds, "scheduled_departure >= @f_departure_from")
		args["f_departure_from"] = *f.DepartureFrom
	}
	if f.DepartureTo != nil {
		conds = append(conds, "scheduled_departure <= @f_departure_to")
		args["f_departure_to"] = *f.DepartureTo
	}
	if f.ClientName != "" {
		conds = append(conds, "client_name = @f_client_name")
		args["f_client_name"] = f.ClientName
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// collectTrips drains rows into a slice, wrapping errors with the caller's context.
func collectTrips(rows pgx.Rows, op string) ([]domain.Trip, error) {
	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return trips, nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID and nullable column conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t          domain.Trip
		id         pgtype.UUID
		routeID    pgtype.UUID
		truckID    pgtype.UUID
		driverID   pgtype.UUID
		coDriverID pgtype.UUID
		status     string
	)

	err := s.Scan(
		&id, &t.TripNumber, &routeID, &truckID, &driverID, &coDriverID, &status,
		&t.ScheduledDeparture, &t.ScheduledArrival, &t.ActualDeparture, &t.ActualArrival,
		&t.OdometerStart, &t.OdometerEnd, &t.EngineHoursStart, &t.EngineHoursEnd,
		&t.ActualDistanceKm, &t.ActualEngineHours, &t.AverageSpeedKmh, &t.FuelConsumedLitres,
		&t.CargoDescription, &t.CargoWeightKg, &t.ClientName, &t.DeliveryNote, &t.Notes,
		&t.DelayReason, &t.CancellationReason, &t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.RouteID = uuid.UUID(routeID.Bytes)
	t.TruckID = uuid.UUID(truckID.Bytes)
	t.DriverID = uuid.UUID(driverID.Bytes)
	if coDriverID.Valid {
		cd := uuid.UUID(coDriverID.Bytes)
		t.CoDriverID = &cd
	}
	t.Status = domain.TripStatus(status)

	return t, nil
}

// isUniqueViolation reports whether err is a Postgres unique violation on the
// named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
