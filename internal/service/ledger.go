package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/tripcore/internal/domain"
	"github.com/fleetops/tripcore/internal/repo"
)

// LedgerService manages the trip-scoped sub-ledgers: stops, incidents, and
// GPS tracking. Ledgers are append-only and do not affect the trip's own
// state machine, with one documented exception: a high or critical incident
// reported while the trip is in progress forces it into delayed.
type LedgerService struct {
	uow   repo.UnitOfWork
	repos repo.Repos
	audit *Emitter
}

// NewLedgerService constructs a LedgerService.
func NewLedgerService(uow repo.UnitOfWork, repos repo.Repos, audit *Emitter) *LedgerService {
	return &LedgerService{uow: uow, repos: repos, audit: audit}
}

// ---- stops -----------------------------------------------------------------

// AddStop appends a stop to the trip's ledger. Stops may only be added while
// the trip is in_progress or delayed; a trip that has not departed, or is
// already closed, has no truck on the road to stop.
func (s *LedgerService) AddStop(ctx context.Context, stop domain.TripStop, userID string) (domain.TripStop, error) {
	if err := validateStop(stop); err != nil {
		return domain.TripStop{}, err
	}

	var created domain.TripStop
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		trip, err := r.Trips.GetByID(ctx, stop.TripID)
		if err != nil {
			return fmt.Errorf("service.LedgerService.AddStop: %w", err)
		}
		if trip.Status != domain.StatusInProgress && trip.Status != domain.StatusDelayed {
			return fmt.Errorf("%w: cannot add a stop to trip %s while %s",
				domain.ErrInvalidState, trip.TripNumber, trip.Status)
		}

		if stop.DepartedAt != nil {
			mins := int(stop.DepartedAt.Sub(stop.ArrivedAt).Minutes())
			stop.DurationMinutes = &mins
		}
		created, err = r.Stops.Create(ctx, stop)
		return err
	})
	if err != nil {
		return domain.TripStop{}, err
	}

	s.audit.Emit(ctx, domain.ActionStopAdded, userID, EntityTrip, created.TripID,
		fmt.Sprintf("%s stop %q recorded", created.Type, created.Name))
	return created, nil
}

// SetStopDeparture records the departure time on a stop and derives its
// duration. A departure can be recorded once; the ledger is otherwise
// immutable.
func (s *LedgerService) SetStopDeparture(ctx context.Context, tripID, stopID uuid.UUID, departedAt time.Time, userID string) (domain.TripStop, error) {
	if departedAt.IsZero() {
		return domain.TripStop{}, fmt.Errorf("%w: departure time is required", domain.ErrValidation)
	}

	var updated domain.TripStop
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		stop, err := r.Stops.GetByID(ctx, tripID, stopID)
		if err != nil {
			return fmt.Errorf("service.LedgerService.SetStopDeparture: %w", err)
		}
		if stop.DepartedAt != nil {
			return fmt.Errorf("%w: departure already recorded for stop %q", domain.ErrInvalidState, stop.Name)
		}
		if departedAt.Before(stop.ArrivedAt) {
			return fmt.Errorf("%w: departure must not be before arrival", domain.ErrValidation)
		}

		mins := int(departedAt.Sub(stop.ArrivedAt).Minutes())
		updated, err = r.Stops.SetDeparture(ctx, tripID, stopID, departedAt, mins)
		return err
	})
	if err != nil {
		return domain.TripStop{}, err
	}

	s.audit.Emit(ctx, domain.ActionStopDeparted, userID, EntityTrip, updated.TripID,
		fmt.Sprintf("departed stop %q after %d minutes", updated.Name, *updated.DurationMinutes))
	return updated, nil
}

// ListStops returns the trip's stops in arrival order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *LedgerService) ListStops(ctx context.Context, tripID uuid.UUID) ([]domain.TripStop, error) {
	if _, err := s.repos.Trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.LedgerService.ListStops: %w", err)
	}
	stops, err := s.repos.Stops.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.LedgerService.ListStops: %w", err)
	}
	if stops == nil {
		stops = []domain.TripStop{}
	}
	return stops, nil
}

// ---- incidents -------------------------------------------------------------

// AddIncident appends an incident to the trip's ledger. This is the one
// sub-ledger write that can mutate the aggregate: a high or critical incident
// on an in_progress trip forces the delayed transition, with a reason
// synthesized from the incident type and description.
func (s *LedgerService) AddIncident(ctx context.Context, inc domain.TripIncident, userID string) (domain.TripIncident, error) {
	if err := validateIncident(inc); err != nil {
		return domain.TripIncident{}, err
	}
	inc.ReportedBy = userID

	var (
		created    domain.TripIncident
		tripPrefix string
		delayed    bool
	)
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		// Lock the trip row: the severity side effect below is a state
		// transition and must not race a concurrent complete/cancel.
		trip, err := r.Trips.GetByIDForUpdate(ctx, inc.TripID)
		if err != nil {
			return fmt.Errorf("service.LedgerService.AddIncident: %w", err)
		}
		tripPrefix = trip.TripNumber

		if created, err = r.Incidents.Create(ctx, inc); err != nil {
			return err
		}

		if inc.Severity.ForcesDelay() && trip.Status == domain.StatusInProgress {
			trip.Status = domain.StatusDelayed
			trip.DelayReason = fmt.Sprintf("%s incident: %s", created.Type, created.Description)
			trip.UpdatedBy = userID
			if _, err := r.Trips.Update(ctx, trip); err != nil {
				return err
			}
			delayed = true
		}
		return nil
	})
	if err != nil {
		return domain.TripIncident{}, err
	}

	s.audit.Emit(ctx, domain.ActionIncidentReport, userID, EntityTrip, created.TripID,
		fmt.Sprintf("%s severity %s incident reported on trip %s", created.Severity, created.Type, tripPrefix))
	if delayed {
		s.audit.Emit(ctx, domain.ActionTripDelayed, userID, EntityTrip, created.TripID,
			fmt.Sprintf("trip %s delayed by %s incident", tripPrefix, created.Type))
	}
	return created, nil
}

// ResolveIncident marks an incident resolved, recording the timestamp and
// optional actual cost. Resolution happens at most once.
func (s *LedgerService) ResolveIncident(ctx context.Context, tripID, incidentID uuid.UUID, actualCost *float64, userID string) (domain.TripIncident, error) {
	if actualCost != nil && *actualCost < 0 {
		return domain.TripIncident{}, fmt.Errorf("%w: actual cost must not be negative", domain.ErrValidation)
	}

	var resolved domain.TripIncident
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		var err error
		resolved, err = r.Incidents.Resolve(ctx, tripID, incidentID, time.Now().UTC(), actualCost)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("service.LedgerService.ResolveIncident: %w", err)
		}
		// Zero rows matched: either the incident is missing or it was
		// already resolved. Look it up to tell the two apart.
		if _, getErr := r.Incidents.GetByID(ctx, tripID, incidentID); getErr == nil {
			return fmt.Errorf("%w: incident is already resolved", domain.ErrInvalidState)
		}
		return fmt.Errorf("service.LedgerService.ResolveIncident: %w", err)
	})
	if err != nil {
		return domain.TripIncident{}, err
	}

	s.audit.Emit(ctx, domain.ActionIncidentResolve, userID, EntityTrip, resolved.TripID,
		fmt.Sprintf("%s incident resolved", resolved.Type))
	return resolved, nil
}

// ListIncidents returns the trip's incidents in occurrence order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *LedgerService) ListIncidents(ctx context.Context, tripID uuid.UUID) ([]domain.TripIncident, error) {
	if _, err := s.repos.Trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.LedgerService.ListIncidents: %w", err)
	}
	incidents, err := s.repos.Incidents.ListByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.LedgerService.ListIncidents: %w", err)
	}
	if incidents == nil {
		incidents = []domain.TripIncident{}
	}
	return incidents, nil
}

// ---- tracking --------------------------------------------------------------

// AddTrackingPoint appends a GPS sample to the trip. Samples carry no status
// invariants and are not audited: telemetry volume would drown the trail.
func (s *LedgerService) AddTrackingPoint(ctx context.Context, pt domain.TrackingPoint) (domain.TrackingPoint, error) {
	if pt.Latitude < -90 || pt.Latitude > 90 {
		return domain.TrackingPoint{}, fmt.Errorf("%w: latitude must be between -90 and 90", domain.ErrValidation)
	}
	if pt.Longitude < -180 || pt.Longitude > 180 {
		return domain.TrackingPoint{}, fmt.Errorf("%w: longitude must be between -180 and 180", domain.ErrValidation)
	}
	if pt.RecordedAt.IsZero() {
		return domain.TrackingPoint{}, fmt.Errorf("%w: recorded_at is required", domain.ErrValidation)
	}

	if _, err := s.repos.Trips.GetByID(ctx, pt.TripID); err != nil {
		return domain.TrackingPoint{}, fmt.Errorf("service.LedgerService.AddTrackingPoint: %w", err)
	}
	created, err := s.repos.Tracking.Create(ctx, pt)
	if err != nil {
		return domain.TrackingPoint{}, fmt.Errorf("service.LedgerService.AddTrackingPoint: %w", err)
	}
	return created, nil
}

// ListTracking returns the trip's GPS samples within the optional time range,
// oldest first. Always returns a non-nil slice.
func (s *LedgerService) ListTracking(ctx context.Context, tripID uuid.UUID, rng domain.TimeRange) ([]domain.TrackingPoint, error) {
	if _, err := s.repos.Trips.GetByID(ctx, tripID); err != nil {
		return nil, fmt.Errorf("service.LedgerService.ListTracking: %w", err)
	}
	points, err := s.repos.Tracking.ListByTripID(ctx, tripID, rng)
	if err != nil {
		return nil, fmt.Errorf("service.LedgerService.ListTracking: %w", err)
	}
	if points == nil {
		points = []domain.TrackingPoint{}
	}
	return points, nil
}

// validateStop enforces the stop ledger's input rules.
func validateStop(stop domain.TripStop) error {
	if !stop.Type.Valid() {
		return fmt.Errorf("%w: unknown stop type %q", domain.ErrValidation, stop.Type)
	}
	if strings.TrimSpace(stop.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if stop.ArrivedAt.IsZero() {
		return fmt.Errorf("%w: arrival time is required", domain.ErrValidation)
	}
	if stop.DepartedAt != nil && stop.DepartedAt.Before(stop.ArrivedAt) {
		return fmt.Errorf("%w: departure must not be before arrival", domain.ErrValidation)
	}
	return nil
}

// validateIncident enforces the incident ledger's input rules.
func validateIncident(inc domain.TripIncident) error {
	if !inc.Type.Valid() {
		return fmt.Errorf("%w: unknown incident type %q", domain.ErrValidation, inc.Type)
	}
	if !inc.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", domain.ErrValidation, inc.Severity)
	}
	if strings.TrimSpace(inc.Description) == "" {
		return fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if inc.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurrence time is required", domain.ErrValidation)
	}
	return nil
}
