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

// IncidentRepo defines the persistence operations for the incident sub-ledger.
// Incidents are append-only; the single in-place mutation is resolution,
// which happens at most once per incident.
type IncidentRepo interface {
	// Create inserts a new incident and returns the persisted record.
	Create(ctx context.Context, inc domain.TripIncident) (domain.TripIncident, error)

	// GetByID retrieves a single incident, scoped to the given tripID.
	// Returns domain.ErrNotFound if no incident with that ID exists under that trip.
	GetByID(ctx context.Context, tripID, incidentID uuid.UUID) (domain.TripIncident, error)

	// ListByTripID returns all incidents for a trip ordered by occurred_at ascending.
	ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.TripIncident, error)

	// Resolve marks an unresolved incident resolved, recording the timestamp
	// and optional actual cost. The WHERE clause only matches unresolved rows,
	// so a second resolution attempt affects zero rows and returns
	// domain.ErrNotFound; callers distinguish "missing" from "already
	// resolved" via GetByID.
	Resolve(ctx context.Context, tripID, incidentID uuid.UUID, resolvedAt time.Time, actualCost *float64) (domain.TripIncident, error)
}

type pgIncidentRepo struct {
	db db
}

// NewIncidentRepo constructs an IncidentRepo backed by the provided db connection.
func NewIncidentRepo(db db) IncidentRepo {
	return &pgIncidentRepo{db: db}
}

const incidentColumns = `id, trip_id, type, severity, description, occurred_at,
		resolved, resolved_at, actual_cost, reported_by, created_at, updated_at`

func (r *pgIncidentRepo) Create(ctx context.Context, inc domain.TripIncident) (domain.TripIncident, error) {
	const q = `
		INSERT INTO trip_incidents (trip_id, type, severity, description, occurred_at, reported_by)
		VALUES (@trip_id, @type, @severity, @description, @occurred_at, @reported_by)
		RETURNING ` + incidentColumns

	args := pgx.NamedArgs{
		"trip_id":     inc.TripID,
		"type":        string(inc.Type),
		"severity":    string(inc.Severity),
		"description": inc.Description,
		"occurred_at": inc.OccurredAt,
		"reported_by": inc.ReportedBy,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanIncident(row)
	if err != nil {
		return domain.TripIncident{}, fmt.Errorf("repo.IncidentRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgIncidentRepo) GetByID(ctx context.Context, tripID, incidentID uuid.UUID) (domain.TripIncident, error) {
	const q = `SELECT ` + incidentColumns + ` FROM trip_incidents WHERE id = @id AND trip_id = @trip_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": incidentID, "trip_id": tripID})
	result, err := scanIncident(row)
	if err != nil {
		return domain.TripIncident{}, fmt.Errorf("repo.IncidentRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgIncidentRepo) ListByTripID(ctx context.Context, tripID uuid.UUID) ([]domain.TripIncident, error) {
	const q = `SELECT ` + incidentColumns + ` FROM trip_incidents WHERE trip_id = @trip_id ORDER BY occurred_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.IncidentRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	var incidents []domain.TripIncident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.IncidentRepo.ListByTripID: scan: %w", err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.IncidentRepo.ListByTripID: rows: %w", err)
	}
	return incidents, nil
}

func (r *pgIncidentRepo) Resolve(ctx context.Context, tripID, incidentID uuid.UUID, resolvedAt time.Time, actualCost *float64) (domain.TripIncident, error) {
	const q = `
		UPDATE trip_incidents
		SET resolved    = TRUE,
		    resolved_at = @resolved_at,
		    actual_cost = @actual_cost,
		    updated_at  = now()
		WHERE id = @id AND trip_id = @trip_id AND resolved = FALSE
		RETURNING ` + incidentColumns

	args := pgx.NamedArgs{
		"id":          incidentID,
		"trip_id":     tripID,
		"resolved_at": resolvedAt,
		"actual_cost": actualCost,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanIncident(row)
	if err != nil {
		return domain.TripIncident{}, fmt.Errorf("repo.IncidentRepo.Resolve: %w", err)
	}
	return result, nil
}

func scanIncident(s scanner) (domain.TripIncident, error) {
	var (
		inc      domain.TripIncident
		id       pgtype.UUID
		tripID   pgtype.UUID
		typ      string
		severity string
	)

	err := s.Scan(&id, &tripID, &typ, &severity, &inc.Description, &inc.OccurredAt,
		&inc.Resolved, &inc.ResolvedAt, &inc.ActualCost, &inc.ReportedBy,
		&inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripIncident{}, domain.ErrNotFound
		}
		return domain.TripIncident{}, err
	}

	inc.ID = uuid.UUID(id.Bytes)
	inc.TripID = uuid.UUID(tripID.Bytes)
	inc.Type = domain.IncidentType(typ)
	inc.Severity = domain.IncidentSeverity(severity)
	return inc, nil
}
