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

// TrackingRepo defines the persistence operations for GPS samples.
// Append and time-range read only; samples are never updated or deleted.
type TrackingRepo interface {
	Create(ctx context.Context, pt domain.TrackingPoint) (domain.TrackingPoint, error)

	// ListByTripID returns samples for a trip ordered by recorded_at
	// ascending, optionally bounded by the given time range.
	ListByTripID(ctx context.Context, tripID uuid.UUID, rng domain.TimeRange) ([]domain.TrackingPoint, error)
}

type pgTrackingRepo struct {
	db db
}

// NewTrackingRepo constructs a TrackingRepo backed by the provided db connection.
func NewTrackingRepo(db db) TrackingRepo {
	return &pgTrackingRepo{db: db}
}

const trackingColumns = `id, trip_id, latitude, longitude, altitude_m, speed_kmh,
		heading, accuracy_m, recorded_at, created_at`

func (r *pgTrackingRepo) Create(ctx context.Context, pt domain.TrackingPoint) (domain.TrackingPoint, error) {
	const q = `
		INSERT INTO trip_tracking (trip_id, latitude, longitude, altitude_m, speed_kmh, heading, accuracy_m, recorded_at)
		VALUES (@trip_id, @latitude, @longitude, @altitude_m, @speed_kmh, @heading, @accuracy_m, @recorded_at)
		RETURNING ` + trackingColumns

	args := pgx.NamedArgs{
		"trip_id":     pt.TripID,
		"latitude":    pt.Latitude,
		"longitude":   pt.Longitude,
		"altitude_m":  pt.AltitudeM,
		"speed_kmh":   pt.SpeedKmh,
		"heading":     pt.Heading,
		"accuracy_m":  pt.AccuracyM,
		"recorded_at": pt.RecordedAt,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrackingPoint(row)
	if err != nil {
		return domain.TrackingPoint{}, fmt.Errorf("repo.TrackingRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTrackingRepo) ListByTripID(ctx context.Context, tripID uuid.UUID, rng domain.TimeRange) ([]domain.TrackingPoint, error) {
	const q = `
		SELECT ` + trackingColumns + `
		FROM trip_tracking
		WHERE trip_id = @trip_id
		  AND (@from::timestamptz IS NULL OR recorded_at >= @from)
		  AND (@to::timestamptz IS NULL OR recorded_at <= @to)
		ORDER BY recorded_at`

	args := pgx.NamedArgs{"trip_id": tripID, "from": rng.From, "to": rng.To}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TrackingRepo.ListByTripID: %w", err)
	}
	defer rows.Close()

	var points []domain.TrackingPoint
	for rows.Next() {
		pt, err := scanTrackingPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TrackingRepo.ListByTripID: scan: %w", err)
		}
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TrackingRepo.ListByTripID: rows: %w", err)
	}
	return points, nil
}

func scanTrackingPoint(s scanner) (domain.TrackingPoint, error) {
	var (
		pt     domain.TrackingPoint
		id     pgtype.UUID
		tripID pgtype.UUID
	)

	err := s.Scan(&id, &tripID, &pt.Latitude, &pt.Longitude, &pt.AltitudeM,
		&pt.SpeedKmh, &pt.Heading, &pt.AccuracyM, &pt.RecordedAt, &pt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TrackingPoint{}, domain.ErrNotFound
		}
		return domain.TrackingPoint{}, err
	}

	pt.ID = uuid.UUID(id.Bytes)
	pt.TripID = uuid.UUID(tripID.Bytes)
	return pt, nil
}
