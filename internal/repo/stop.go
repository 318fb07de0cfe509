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

// StopRepo defines the persistence operations for the stop sub-ledger.
// The ledger is append-only: there is no delete, and the only update is
// recording a departure.
type StopRepo interface {
	// Create inserts a new stop and returns the persisted record.
	Create(ctx context.Context, stop domain.TripStop) (domain.TripStop, error)

	// GetByID retrieves a single stop, scoped to the given tripID.
	// Returns domain.ErrNotFound if no stop with that ID exists under that trip.
	GetByID(ctx context.Context, tripID, stopID uuid.UUID) (domain.TripStop, error)

	// ListByTripID returns all stops for a trip ordered by arrived_at ascending.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.TripStop, error)

	// SetDeparture records the departure time and derived duration on a stop.
	// Returns domain.ErrNotFound if no stop with that ID exists under that trip.
	SetDeparture(ctx context.Context, tripID, stopID uuid.UUID, departedAt time.Time, durationMinutes int) (domain.TripStop, error)
}

type pgStopRepo struct {
	db db
}

// NewStopRepo constructs a StopRepo backed by the provided db connection.
func NewStopRepo(db db) StopRepo {
	return &pgStopRepo{db: db}
}

const stopColumns = `id, trip_id, type, name, location, arrived_at, departed_at,
		duration_minutes, notes, created_at, updated_at`

func (r *pgStopRepo) Create(ctx context.Context, stop domain.TripStop) (domain.TripStop, error) {
	const q = `
		INSERT INTO trip_stops (trip_id, type, name, location, arrived_at, departed_at, notes)
		VALUES (@trip_id, @type, @name, @location, @arrived_at, @departed_at, @notes)
		RETURNING ` + stopColumns

	args := pgx.NamedArgs{
		"trip_id":     stop.TripID,
		"type":        string(stop.Type),
		"name":        stop.Name,
		"location":    stop.Location,
		"arrived_at":  stop.ArrivedAt,
		"departed_at": stop.DepartedAt,
		"notes":       stop.Notes,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanStop(row)
	if err != nil {
		return domain.TripStop{}, fmt.Errorf("repo.StopRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgStopRepo) GetByID(ctx context.Context, tripID, stopID uuid.UUID) (domain.TripStop, error) {
	const q = `SELECT ` + stopColumns + ` FROM trip_stops WHERE id = @id AND trip_id = @trip_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": stopID, "trip_id": tripID})
	result, err := scanStop(row)
	if err != nil {
		return domain.TripStop{}, fmt.Errorf("repo.StopRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgStopRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.TripStop, error) {
	const q = `SELECT ` + stopColumns + ` FROM trip_stops WHERE trip_id = @trip_id ORDER BY arrived_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.StopRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	var stops []domain.TripStop
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.StopRepo.ListByTripID: scan: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StopRepo.ListByTripID: rows: %w", err)
	}
	return stops, nil
}

func (r *pgStopRepo) SetDeparture(ctx context.Context, tripID, stopID uuid.UUID, departedAt time.Time, durationMinutes int) (domain.TripStop, error) {
	const q = `
		UPDATE trip_stops
		SET departed_at      = @departed_at,
		    duration_minutes = @duration_minutes,
		    updated_at       = now()
		WHERE id = @id AND trip_id = @trip_id
		RETURNING ` + stopColumns

	args := pgx.NamedArgs{
		"id":               stopID,
		"trip_id":          tripID,
		"departed_at":      departedAt,
		"duration_minutes": durationMinutes,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanStop(row)
	if err != nil {
		return domain.TripStop{}, fmt.Errorf("repo.StopRepo.SetDeparture: %w", err)
	}
	return result, nil
}

func scanStop(s scanner) (domain.TripStop, error) {
	var (
		st     domain.TripStop
		id     pgtype.UUID
		tripID pgtype.UUID
		typ    string
	)

	err := s.Scan(&id, &tripID, &typ, &st.Name, &st.Location, &st.ArrivedAt,
		&st.DepartedAt, &st.DurationMinutes, &st.Notes, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripStop{}, domain.ErrNotFound
		}
		return domain.TripStop{}, err
	}

	st.ID = uuid.UUID(id.Bytes)
	st.TripID = uuid.UUID(tripID.Bytes)
	st.Type = domain.StopType(typ)
	return st, nil
}
