package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fleetops/tripcore/internal/domain"
)

// FuelLogRepo defines the persistence operations for refuelling records.
// The records are owned by the fuel-logging collaborator; this service writes
// them only through the collaborator surface (AddLog/RemoveLog) and otherwise
// reads them for reconciliation.
type FuelLogRepo interface {
	Create(ctx context.Context, log domain.FuelLog) (domain.FuelLog, error)

	// GetByID retrieves a single fuel log.
	// Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.FuelLog, error)

	// ListByTripID returns all fuel logs linked to a trip, ordered by
	// filled_at ascending.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.FuelLog, error)

	// PreviousForTruck returns the truck's most recent fuel log strictly
	// before the given time, excluding excludeID. Returns domain.ErrNotFound
	// when the truck has no earlier log.
	PreviousForTruck(ctx context.Context, truckID uuid.UUID, before time.Time, excludeID uuid.UUID) (domain.FuelLog, error)

	// Delete removes a fuel log. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgFuelLogRepo struct {
	db db
}

// NewFuelLogRepo constructs a FuelLogRepo backed by the provided db connection.
func NewFuelLogRepo(db db) FuelLogRepo {
	return &pgFuelLogRepo{db: db}
}

const fuelLogColumns = `id, truck_id, trip_id, filled_at, litres, total_cost,
		odometer_km, full_tank, station, logged_by, created_at`

func (r *pgFuelLogRepo) Create(ctx context.Context, log domain.FuelLog) (domain.FuelLog, error) {
	const q = `
		INSERT INTO fuel_logs (truck_id, trip_id, filled_at, litres, total_cost, odometer_km, full_tank, station, logged_by)
		VALUES (@truck_id, @trip_id, @filled_at, @litres, @total_cost, @odometer_km, @full_tank, @station, @logged_by)
		RETURNING ` + fuelLogColumns

	args := pgx.NamedArgs{
		"truck_id":    log.TruckID,
		"trip_id":     log.TripID, // nil becomes NULL
		"filled_at":   log.FilledAt,
		"litres":      log.Litres,
		"total_cost":  log.TotalCost,
		"odometer_km": log.OdometerKm,
		"full_tank":   log.FullTank,
		"station":     log.Station,
		"logged_by":   log.LoggedBy,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanFuelLog(row)
	if err != nil {
		return domain.FuelLog{}, fmt.Errorf("repo.FuelLogRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgFuelLogRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.FuelLog, error) {
	const q = `SELECT ` + fuelLogColumns + ` FROM fuel_logs WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanFuelLog(row)
	if err != nil {
		return domain.FuelLog{}, fmt.Errorf("repo.FuelLogRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgFuelLogRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.FuelLog, error) {
	const q = `SELECT ` + fuelLogColumns + ` FROM fuel_logs WHERE trip_id = @trip_id ORDER BY filled_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.FuelLogRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	var logs []domain.FuelLog
	for rows.Next() {
		l, err := scanFuelLog(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.FuelLogRepo.ListByTripID: scan: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.FuelLogRepo.ListByTripID: rows: %w", err)
	}
	return logs, nil
}

func (r *pgFuelLogRepo) PreviousForTruck(ctx context.Context, truckID uuid.UUID, before time.Time, excludeID uuid.UUID) (domain.FuelLog, error) {
	const q = `
		SELECT ` + fuelLogColumns + `
		FROM fuel_logs
		WHERE truck_id = @truck_id AND filled_at < @before AND id <> @exclude_id
		ORDER BY filled_at DESC
		LIMIT 1`

	args := pgx.NamedArgs{"truck_id": truckID, "before": before, "exclude_id": excludeID}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanFuelLog(row)
	if err != nil {
		return domain.FuelLog{}, fmt.Errorf("repo.FuelLogRepo.PreviousForTruck: %w", err)
	}
	return result, nil
}

func (r *pgFuelLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM fuel_logs WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.FuelLogRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.FuelLogRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanFuelLog(s scanner) (domain.FuelLog, error) {
	var (
		l      domain.FuelLog
		id     pgtype.UUID
		truck  pgtype.UUID
		tripID pgtype.UUID
	)

	err := s.Scan(&id, &truck, &tripID, &l.FilledAt, &l.Litres, &l.TotalCost,
		&l.OdometerKm, &l.FullTank, &l.Station, &l.LoggedBy, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FuelLog{}, domain.ErrNotFound
		}
		return domain.FuelLog{}, err
	}

	l.ID = uuid.UUID(id.Bytes)
	l.TruckID = uuid.UUID(truck.Bytes)
	if tripID.Valid {
		tid := uuid.UUID(tripID.Bytes)
		l.TripID = &tid
	}
	return l, nil
}
