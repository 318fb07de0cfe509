package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fleetops/tripcore/internal/domain"
	"github.com/fleetops/tripcore/internal/repo"
)

// FuelService reconciles refuelling records against trips.
//
// Reconciliation is idempotent: re-running it over the same logs always
// yields the same totals, so it needs no locking beyond normal transactional
// isolation. A trip's cached fuel figure is only overwritten once the trip is
// completed; consumption on an open trip is not yet meaningful.
type FuelService struct {
	uow   repo.UnitOfWork
	repos repo.Repos
	audit *Emitter
}

// NewFuelService constructs a FuelService.
func NewFuelService(uow repo.UnitOfWork, repos repo.Repos, audit *Emitter) *FuelService {
	return &FuelService{uow: uow, repos: repos, audit: audit}
}

// TripSummary aggregates all refuelling linked to a trip: totals, refill
// count, average cost per litre, and per-record point efficiency.
func (s *FuelService) TripSummary(ctx context.Context, tripID uuid.UUID) (domain.FuelSummary, error) {
	if _, err := s.repos.Trips.GetByID(ctx, tripID); err != nil {
		return domain.FuelSummary{}, fmt.Errorf("service.FuelService.TripSummary: %w", err)
	}

	logs, err := s.repos.FuelLogs.ListByTripID(ctx, tripID)
	if err != nil {
		return domain.FuelSummary{}, fmt.Errorf("service.FuelService.TripSummary: %w", err)
	}

	summary := domain.FuelSummary{
		TripID:      tripID,
		RefillCount: len(logs),
		Logs:        make([]domain.FuelEntry, 0, len(logs)),
	}
	for _, log := range logs {
		summary.TotalLitres += log.Litres
		summary.TotalCost += log.TotalCost

		entry := domain.FuelEntry{Log: log}
		eff, ok, err := s.pointEfficiency(ctx, log)
		if err != nil {
			return domain.FuelSummary{}, fmt.Errorf("service.FuelService.TripSummary: %w", err)
		}
		if ok {
			entry.KmPerLitre = &eff
		}
		summary.Logs = append(summary.Logs, entry)
	}
	if summary.TotalLitres > 0 {
		summary.AverageCostPerLitre = summary.TotalCost / summary.TotalLitres
	}
	return summary, nil
}

// pointEfficiency derives km/L for one fill from the odometer distance since
// the truck's previous fill. It is only meaningful when both fills were
// full-tank: between two full tanks the litres poured equal the litres
// burned. A truck with no earlier fill is normal and yields ok=false; any
// other lookup failure is returned so callers do not mistake a database
// error for a missing figure.
func (s *FuelService) pointEfficiency(ctx context.Context, log domain.FuelLog) (float64, bool, error) {
	if !log.FullTank || log.Litres <= 0 {
		return 0, false, nil
	}
	prev, err := s.repos.FuelLogs.PreviousForTruck(ctx, log.TruckID, log.FilledAt, log.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if !prev.FullTank {
		return 0, false, nil
	}
	distance := log.OdometerKm - prev.OdometerKm
	if distance <= 0 {
		return 0, false, nil
	}
	return distance / log.Litres, true, nil
}

// AddLog records a refuelling event for a truck, optionally linked to a trip.
// When the linked trip is already completed, its cached fuel figure is
// recomputed in the same transaction.
func (s *FuelService) AddLog(ctx context.Context, log domain.FuelLog, userID string) (domain.FuelLog, error) {
	if err := validateFuelLog(log); err != nil {
		return domain.FuelLog{}, err
	}
	log.LoggedBy = userID

	var created domain.FuelLog
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		if _, err := r.Trucks.GetByID(ctx, log.TruckID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: truck %s does not exist", domain.ErrValidation, log.TruckID)
			}
			return fmt.Errorf("service.FuelService.AddLog: %w", err)
		}
		if log.TripID != nil {
			if _, err := r.Trips.GetByID(ctx, *log.TripID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("%w: trip %s does not exist", domain.ErrValidation, *log.TripID)
				}
				return fmt.Errorf("service.FuelService.AddLog: %w", err)
			}
		}

		var err error
		if created, err = r.FuelLogs.Create(ctx, log); err != nil {
			return err
		}
		if created.TripID != nil {
			return recomputeTripFuel(ctx, r, *created.TripID)
		}
		return nil
	})
	if err != nil {
		return domain.FuelLog{}, err
	}

	s.audit.Emit(ctx, domain.ActionFuelLogAdded, userID, EntityFuelLog, created.ID,
		fmt.Sprintf("%.1f L logged for truck %s", created.Litres, created.TruckID))
	return created, nil
}

// RemoveLog deletes a refuelling record, recomputing the linked trip's cached
// fuel figure when that trip is completed.
func (s *FuelService) RemoveLog(ctx context.Context, id uuid.UUID, userID string) error {
	var removed domain.FuelLog
	err := s.uow.Run(ctx, func(r repo.Repos) error {
		var err error
		if removed, err = r.FuelLogs.GetByID(ctx, id); err != nil {
			return fmt.Errorf("service.FuelService.RemoveLog: %w", err)
		}
		if err := r.FuelLogs.Delete(ctx, id); err != nil {
			return fmt.Errorf("service.FuelService.RemoveLog: %w", err)
		}
		if removed.TripID != nil {
			return recomputeTripFuel(ctx, r, *removed.TripID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Emit(ctx, domain.ActionFuelLogRemoved, userID, EntityFuelLog, removed.ID,
		fmt.Sprintf("fuel log removed for truck %s", removed.TruckID))
	return nil
}

// recomputeTripFuel overwrites a completed trip's cached fuel figure with the
// sum of its linked logs. Trips still underway are left alone: their final
// consumption is only meaningful once the trip itself is closed.
func recomputeTripFuel(ctx context.Context, r repo.Repos, tripID uuid.UUID) error {
	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		return fmt.Errorf("service.recomputeTripFuel: %w", err)
	}
	if trip.Status != domain.StatusCompleted {
		return nil
	}

	logs, err := r.FuelLogs.ListByTripID(ctx, tripID)
	if err != nil {
		return fmt.Errorf("service.recomputeTripFuel: %w", err)
	}
	if err := r.Trips.SetFuelConsumed(ctx, tripID, sumLitres(logs)); err != nil {
		return fmt.Errorf("service.recomputeTripFuel: %w", err)
	}
	return nil
}

// validateFuelLog enforces the refuelling record's input rules.
func validateFuelLog(log domain.FuelLog) error {
	if log.TruckID == uuid.Nil {
		return fmt.Errorf("%w: truck is required", domain.ErrValidation)
	}
	if log.FilledAt.IsZero() {
		return fmt.Errorf("%w: fill time is required", domain.ErrValidation)
	}
	if log.Litres <= 0 {
		return fmt.Errorf("%w: litres must be positive", domain.ErrValidation)
	}
	if log.TotalCost < 0 {
		return fmt.Errorf("%w: total cost must not be negative", domain.ErrValidation)
	}
	if log.OdometerKm < 0 {
		return fmt.Errorf("%w: odometer must not be negative", domain.ErrValidation)
	}
	return nil
}
