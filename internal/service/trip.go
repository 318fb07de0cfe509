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

// TripService implements the trip registry and state machine.
//
// Mutations run through the unit of work so the conflict check shares a
// transaction with the insert, and every state transition locks the trip row
// before its guards run. Plain reads go through pool-backed repos.
type TripService struct {
	uow   repo.UnitOfWork
	repos repo.Repos
	audit *Emitter
}

// NewTripService constructs a TripService. repos must be pool-backed; uow
// supplies transaction-scoped repos to each mutation.
func NewTripService(uow repo.UnitOfWork, repos repo.Repos, audit *Emitter) *TripService {
	return &TripService{uow: uow, repos: repos, audit: audit}
}

// StartTripCmd carries the readings captured when a trip departs.
type StartTripCmd struct {
	OdometerStart    float64
	EngineHoursStart float64
	ActualDeparture  time.Time
}

// CompleteTripCmd carries the readings captured when a trip arrives.
// FuelConsumedLitres is the manual fallback figure, used only when no
// refuelling records are linked to the trip.
type CompleteTripCmd struct {
	OdometerEnd        float64
	EngineHoursEnd     float64
	ActualArrival      time.Time
	FuelConsumedLitres *float64
	Notes              string
}

// TripUpdate is the bounded patch allowed while a trip is still scheduled.
// Nil fields are left unchanged. CoDriverID and ScheduledArrival are nullable
// on the trip itself, so a nil pointer cannot distinguish "leave unchanged"
// from "reset to unset"; the Clear flags carry the second meaning. Actuals
// and derived metrics are deliberately absent: they are owned by the state
// machine.
type TripUpdate struct {
	RouteID            *uuid.UUID
	TruckID            *uuid.UUID
	DriverID           *uuid.UUID
	CoDriverID         *uuid.UUID
	ScheduledDeparture *time.Time
	ScheduledArrival   *time.Time
	CargoDescription   *string
	CargoWeightKg      *float64
	ClientName         *string
	DeliveryNote       *string
	Notes              *string

	// ClearCoDriver removes the co-driver assignment. Ignored when
	// CoDriverID is also set.
	ClearCoDriver bool
	// ClearScheduledArrival reopens the trip's scheduling window, falling
	// back to the 24-hour default for conflict checks. Ignored when
	// ScheduledArrival is also set.
	ClearScheduledArrival bool
}

// Create validates a new trip, checks the truck and driver(s) for
// double-booking inside the inserting transaction, and persists the trip in
// scheduled status.
func (s *TripService) Create(ctx context.Context, trip domain.Trip, createdBy string) (domain.Trip, error) {
	trip.Status = domain.StatusScheduled
	trip.CreatedBy = createdBy
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, err
	}

	var created domain.Trip
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		if err := s.checkBindings(ctx, r, trip); err != nil {
			return err
		}
		check := BookingCheck{
			TruckID:    trip.TruckID,
			DriverID:   trip.DriverID,
			CoDriverID: trip.CoDriverID,
			Window:     trip.Window(),
		}
		if err := CheckBookingConflicts(ctx, r.Trips, check); err != nil {
			return err
		}

		var err error
		created, err = r.Trips.Create(ctx, trip)
		return err
	})
	if err != nil {
		return domain.Trip{}, err
	}

	s.audit.Emit(ctx, domain.ActionTripCreated, createdBy, EntityTrip, created.ID,
		fmt.Sprintf("trip %s scheduled to depart %s", created.TripNumber, created.ScheduledDeparture.Format(time.RFC3339)))
	return created, nil
}

// Update applies a bounded patch to a trip that is still scheduled.
// Editing a trip once work has begun is disallowed so captured actuals remain
// trustworthy. Binding or schedule changes re-run the conflict check.
func (s *TripService) Update(ctx context.Context, id uuid.UUID, patch TripUpdate, updatedBy string) (domain.Trip, error) {
	var updated domain.Trip
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		trip, err := r.Trips.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("service.TripService.Update: %w", err)
		}
		if trip.Status != domain.StatusScheduled {
			return fmt.Errorf("%w: trip %s is %s, updates are only allowed while scheduled",
				domain.ErrInvalidState, trip.TripNumber, trip.Status)
		}

		trip = applyPatch(trip, patch)
		trip.UpdatedBy = updatedBy
		if err := validateTrip(trip); err != nil {
			return err
		}

		// Re-check even when bindings did not change: the window may have.
		check := BookingCheck{
			TruckID:       trip.TruckID,
			DriverID:      trip.DriverID,
			CoDriverID:    trip.CoDriverID,
			Window:        trip.Window(),
			ExcludeTripID: &trip.ID,
		}
		if err := s.checkBindings(ctx, r, trip); err != nil {
			return err
		}
		if err := CheckBookingConflicts(ctx, r.Trips, check); err != nil {
			return err
		}

		updated, err = r.Trips.Update(ctx, trip)
		return err
	})
	if err != nil {
		return domain.Trip{}, err
	}

	s.audit.Emit(ctx, domain.ActionTripUpdated, updatedBy, EntityTrip, updated.ID,
		fmt.Sprintf("trip %s updated", updated.TripNumber))
	return updated, nil
}

// Start moves a scheduled trip to in_progress, capturing the departure time
// and both start readings.
func (s *TripService) Start(ctx context.Context, id uuid.UUID, cmd StartTripCmd, userID string) (domain.Trip, error) {
	if cmd.OdometerStart < 0 || cmd.EngineHoursStart < 0 {
		return domain.Trip{}, fmt.Errorf("%w: start readings must not be negative", domain.ErrValidation)
	}
	if cmd.ActualDeparture.IsZero() {
		return domain.Trip{}, fmt.Errorf("%w: actual departure is required", domain.ErrValidation)
	}

	var started domain.Trip
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		trip, err := r.Trips.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("service.TripService.Start: %w", err)
		}
		if trip.Status != domain.StatusScheduled {
			return fmt.Errorf("%w: cannot start trip %s from %s, must be scheduled",
				domain.ErrInvalidState, trip.TripNumber, trip.Status)
		}

		trip.Status = domain.StatusInProgress
		trip.ActualDeparture = &cmd.ActualDeparture
		trip.OdometerStart = &cmd.OdometerStart
		trip.EngineHoursStart = &cmd.EngineHoursStart
		trip.UpdatedBy = userID

		started, err = r.Trips.Update(ctx, trip)
		return err
	})
	if err != nil {
		return domain.Trip{}, err
	}

	s.audit.Emit(ctx, domain.ActionTripStarted, userID, EntityTrip, started.ID,
		fmt.Sprintf("trip %s departed at odometer %.1f km", started.TripNumber, cmd.OdometerStart))
	return started, nil
}

// Complete moves an in_progress or delayed trip to completed.
//
// Odometer and engine-hour counters never run backward: an end reading below
// its start reading fails with domain.ErrInvariant. Derived metrics are
// computed here and nowhere else. Fuel consumed comes from linked refuelling
// records when any exist, otherwise from the caller-supplied manual figure.
// The end readings are propagated to the truck's running totals in the same
// transaction.
func (s *TripService) Complete(ctx context.Context, id uuid.UUID, cmd CompleteTripCmd, userID string) (domain.Trip, error) {
	if cmd.ActualArrival.IsZero() {
		return domain.Trip{}, fmt.Errorf("%w: actual arrival is required", domain.ErrValidation)
	}

	var completed domain.Trip
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		trip, err := r.Trips.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("service.TripService.Complete: %w", err)
		}
		if trip.Status != domain.StatusInProgress && trip.Status != domain.StatusDelayed {
			return fmt.Errorf("%w: cannot complete trip %s from %s, must be in_progress or delayed",
				domain.ErrInvalidState, trip.TripNumber, trip.Status)
		}
		if trip.OdometerStart == nil || trip.EngineHoursStart == nil || trip.ActualDeparture == nil {
			return fmt.Errorf("%w: trip %s has no start readings", domain.ErrInvalidState, trip.TripNumber)
		}
		if cmd.OdometerEnd < *trip.OdometerStart {
			return fmt.Errorf("%w: odometer end %.1f is below start %.1f",
				domain.ErrInvariant, cmd.OdometerEnd, *trip.OdometerStart)
		}
		if cmd.EngineHoursEnd < *trip.EngineHoursStart {
			return fmt.Errorf("%w: engine hours end %.1f is below start %.1f",
				domain.ErrInvariant, cmd.EngineHoursEnd, *trip.EngineHoursStart)
		}

		distance := cmd.OdometerEnd - *trip.OdometerStart
		engineHours := cmd.EngineHoursEnd - *trip.EngineHoursStart
		avgSpeed := 0.0
		if dur := cmd.ActualArrival.Sub(*trip.ActualDeparture).Hours(); dur > 0 {
			avgSpeed = distance / dur
		}

		// Linked refuelling records are authoritative; the manual figure is
		// only a fallback for trips fuelled off the books.
		logs, err := r.FuelLogs.ListByTripID(ctx, trip.ID)
		if err != nil {
			return fmt.Errorf("service.TripService.Complete: %w", err)
		}
		fuel := cmd.FuelConsumedLitres
		if len(logs) > 0 {
			sum := sumLitres(logs)
			fuel = &sum
		}

		trip.Status = domain.StatusCompleted
		trip.ActualArrival = &cmd.ActualArrival
		trip.OdometerEnd = &cmd.OdometerEnd
		trip.EngineHoursEnd = &cmd.EngineHoursEnd
		trip.ActualDistanceKm = &distance
		trip.ActualEngineHours = &engineHours
		trip.AverageSpeedKmh = &avgSpeed
		trip.FuelConsumedLitres = fuel
		if cmd.Notes != "" {
			trip.Notes = cmd.Notes
		}
		trip.UpdatedBy = userID

		if completed, err = r.Trips.Update(ctx, trip); err != nil {
			return err
		}
		return r.Trucks.UpdateMeters(ctx, trip.TruckID, cmd.OdometerEnd, cmd.EngineHoursEnd)
	})
	if err != nil {
		return domain.Trip{}, err
	}

	s.audit.Emit(ctx, domain.ActionTripCompleted, userID, EntityTrip, completed.ID,
		completionSummary(completed))
	return completed, nil
}

// MarkDelayed moves a scheduled or in_progress trip to delayed, recording the
// reason. Calling it on a trip that is already delayed is rejected: every
// transition must represent a genuine status change.
func (s *TripService) MarkDelayed(ctx context.Context, id uuid.UUID, reason, userID string) (domain.Trip, error) {
	if strings.TrimSpace(reason) == "" {
		return domain.Trip{}, fmt.Errorf("%w: delay reason is required", domain.ErrValidation)
	}

	var delayed domain.Trip
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		trip, err := r.Trips.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("service.TripService.MarkDelayed: %w", err)
		}
		if trip.Status != domain.StatusScheduled && trip.Status != domain.StatusInProgress {
			return fmt.Errorf("%w: cannot mark trip %s delayed from %s",
				domain.ErrInvalidState, trip.TripNumber, trip.Status)
		}

		trip.Status = domain.StatusDelayed
		trip.DelayReason = reason
		trip.UpdatedBy = userID

		delayed, err = r.Trips.Update(ctx, trip)
		return err
	})
	if err != nil {
		return domain.Trip{}, err
	}

	s.audit.Emit(ctx, domain.ActionTripDelayed, userID, EntityTrip, delayed.ID,
		fmt.Sprintf("trip %s delayed: %s", delayed.TripNumber, reason))
	return delayed, nil
}

// Cancel moves a trip from any non-terminal state to cancelled.
// Cancellation is a terminal status, not a deletion: the record stays.
func (s *TripService) Cancel(ctx context.Context, id uuid.UUID, reason, userID string) (domain.Trip, error) {
	if strings.TrimSpace(reason) == "" {
		return domain.Trip{}, fmt.Errorf("%w: cancellation reason is required", domain.ErrValidation)
	}

	var cancelled domain.Trip
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		trip, err := r.Trips.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("service.TripService.Cancel: %w", err)
		}
		if trip.Status.IsTerminal() {
			return fmt.Errorf("%w: trip %s is already %s", domain.ErrInvalidState, trip.TripNumber, trip.Status)
		}

		trip.Status = domain.StatusCancelled
		trip.CancellationReason = reason
		trip.UpdatedBy = userID

		cancelled, err = r.Trips.Update(ctx, trip)
		return err
	})
	if err != nil {
		return domain.Trip{}, err
	}

	s.audit.Emit(ctx, domain.ActionTripCancelled, userID, EntityTrip, cancelled.ID,
		fmt.Sprintf("trip %s cancelled: %s", cancelled.TripNumber, reason))
	return cancelled, nil
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.repos.Trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// List returns one page of trips matching the filters, newest scheduled
// departure first, plus the total match count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) List(ctx context.Context, f domain.TripFilters, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.repos.Trips.List(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// Statistics aggregates status counts and completion metrics over all trips
// matching the filters.
func (s *TripService) Statistics(ctx context.Context, f domain.TripFilters) (domain.TripStatistics, error) {
	stats, err := s.repos.Trips.Stats(ctx, f)
	if err != nil {
		return domain.TripStatistics{}, fmt.Errorf("service.TripService.Statistics: %w", err)
	}
	return stats, nil
}

// AuditTrail returns the trip's audit entries, oldest first.
func (s *TripService) AuditTrail(ctx context.Context, id uuid.UUID) ([]domain.AuditEntry, error) {
	if _, err := s.repos.Trips.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("service.TripService.AuditTrail: %w", err)
	}
	entries, err := s.repos.Audit.ListByEntity(ctx, EntityTrip, id)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.AuditTrail: %w", err)
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, nil
}

// checkBindings verifies the referenced truck and driver(s) exist.
func (s *TripService) checkBindings(ctx context.Context, r repo.Repos, trip domain.Trip) error {
	if _, err := r.Trucks.GetByID(ctx, trip.TruckID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: truck %s does not exist", domain.ErrValidation, trip.TruckID)
		}
		return fmt.Errorf("service.TripService: %w", err)
	}
	if _, err := r.Drivers.GetByID(ctx, trip.DriverID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: driver %s does not exist", domain.ErrValidation, trip.DriverID)
		}
		return fmt.Errorf("service.TripService: %w", err)
	}
	if trip.CoDriverID != nil {
		if _, err := r.Drivers.GetByID(ctx, *trip.CoDriverID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: co-driver %s does not exist", domain.ErrValidation, *trip.CoDriverID)
			}
			return fmt.Errorf("service.TripService: %w", err)
		}
	}
	return nil
}

// validateTrip enforces the registry's preconditions, shared by Create and Update.
func validateTrip(trip domain.Trip) error {
	if strings.TrimSpace(trip.TripNumber) == "" {
		return fmt.Errorf("%w: trip number is required", domain.ErrValidation)
	}
	if trip.ScheduledDeparture.IsZero() {
		return fmt.Errorf("%w: scheduled departure is required", domain.ErrValidation)
	}
	if trip.RouteID == uuid.Nil || trip.TruckID == uuid.Nil || trip.DriverID == uuid.Nil {
		return fmt.Errorf("%w: route, truck, and driver are required", domain.ErrValidation)
	}
	if trip.CoDriverID != nil && *trip.CoDriverID == trip.DriverID {
		return fmt.Errorf("%w: driver cannot be their own co-driver", domain.ErrInvariant)
	}
	if trip.ScheduledArrival != nil && !trip.ScheduledArrival.After(trip.ScheduledDeparture) {
		return fmt.Errorf("%w: scheduled arrival must be after scheduled departure", domain.ErrValidation)
	}
	if trip.CargoWeightKg != nil && *trip.CargoWeightKg < 0 {
		return fmt.Errorf("%w: cargo weight must not be negative", domain.ErrValidation)
	}
	return nil
}

// applyPatch copies the set fields of a TripUpdate onto a trip.
func applyPatch(trip domain.Trip, patch TripUpdate) domain.Trip {
	if patch.RouteID != nil {
		trip.RouteID = *patch.RouteID
	}
	if patch.TruckID != nil {
		trip.TruckID = *patch.TruckID
	}
	if patch.DriverID != nil {
		trip.DriverID = *patch.DriverID
	}
	if patch.CoDriverID != nil {
		trip.CoDriverID = patch.CoDriverID
	} else if patch.ClearCoDriver {
		trip.CoDriverID = nil
	}
	if patch.ScheduledDeparture != nil {
		trip.ScheduledDeparture = *patch.ScheduledDeparture
	}
	if patch.ScheduledArrival != nil {
		trip.ScheduledArrival = patch.ScheduledArrival
	} else if patch.ClearScheduledArrival {
		trip.ScheduledArrival = nil
	}
	if patch.CargoDescription != nil {
		trip.CargoDescription = *patch.CargoDescription
	}
	if patch.CargoWeightKg != nil {
		trip.CargoWeightKg = patch.CargoWeightKg
	}
	if patch.ClientName != nil {
		trip.ClientName = *patch.ClientName
	}
	if patch.DeliveryNote != nil {
		trip.DeliveryNote = *patch.DeliveryNote
	}
	if patch.Notes != nil {
		trip.Notes = *patch.Notes
	}
	return trip
}

// completionSummary renders the human-readable audit line for a completed trip.
func completionSummary(t domain.Trip) string {
	distance := 0.0
	if t.ActualDistanceKm != nil {
		distance = *t.ActualDistanceKm
	}
	fuelPart := "no fuel recorded"
	if t.FuelConsumedLitres != nil && *t.FuelConsumedLitres > 0 {
		fuelPart = fmt.Sprintf("%.1f L fuel (%.2f km/L)", *t.FuelConsumedLitres, distance / *t.FuelConsumedLitres)
	}
	return fmt.Sprintf("trip %s completed: %.1f km, %s", t.TripNumber, distance, fuelPart)
}

// sumLitres totals the litres across a set of fuel logs.
func sumLitres(logs []domain.FuelLog) float64 {
	var total float64
	for _, l := range logs {
		total += l.Litres
	}
	return total
}
