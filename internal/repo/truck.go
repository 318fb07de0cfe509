package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fleetops/tripcore/internal/domain"
)

// TruckRepo is the narrow slice of truck master data this service touches:
// existence lookups plus the single write path of trip completion propagating
// meter readings.
type TruckRepo interface {
	// GetByID retrieves a truck. Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Truck, error)

	// UpdateMeters overwrites the truck's running odometer and engine-hour
	// totals. Returns domain.ErrNotFound if the truck does not exist.
	UpdateMeters(ctx context.Context, id uuid.UUID, odometerKm, engineHours float64) error
}

// DriverRepo is read-only driver master data, used to validate trip bindings.
type DriverRepo interface {
	// GetByID retrieves a driver. Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error)
}

type pgTruckRepo struct {
	db db
}

// NewTruckRepo constructs a TruckRepo backed by the provided db connection.
func NewTruckRepo(db db) TruckRepo {
	return &pgTruckRepo{db: db}
}

func (r *pgTruckRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Truck, error) {
	const q = `
		SELECT id, plate_number, model, odometer_km, engine_hours, created_at, updated_at
		FROM trucks
		WHERE id = @id`

	var (
		t   domain.Truck
		tid pgtype.UUID
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(
		&tid, &t.PlateNumber, &t.Model, &t.OdometerKm, &t.EngineHours, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Truck{}, fmt.Errorf("repo.TruckRepo.GetByID: %w", domain.ErrNotFound)
		}
		return domain.Truck{}, fmt.Errorf("repo.TruckRepo.GetByID: %w", err)
	}
	t.ID = uuid.UUID(tid.Bytes)
	return t, nil
}

func (r *pgTruckRepo) UpdateMeters(ctx context.Context, id uuid.UUID, odometerKm, engineHours float64) error {
	const q = `
		UPDATE trucks
		SET odometer_km  = @odometer_km,
		    engine_hours = @engine_hours,
		    updated_at   = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "odometer_km": odometerKm, "engine_hours": engineHours})
	if err != nil {
		return fmt.Errorf("repo.TruckRepo.UpdateMeters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TruckRepo.UpdateMeters: %w", domain.ErrNotFound)
	}
	return nil
}

type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

func (r *pgDriverRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Driver, error) {
	const q = `SELECT id, name, licence_number, created_at FROM drivers WHERE id = @id`

	var (
		d   domain.Driver
		did pgtype.UUID
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&did, &d.Name, &d.LicenceNumber, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", domain.ErrNotFound)
		}
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByID: %w", err)
	}
	d.ID = uuid.UUID(did.Bytes)
	return d, nil
}
