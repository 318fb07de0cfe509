package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fleetops/tripcore/internal/domain"
	"github.com/fleetops/tripcore/internal/repo"
)

// BookingCheck describes a candidate truck/driver booking to test for
// double-booking against existing active trips.
type BookingCheck struct {
	TruckID    uuid.UUID
	DriverID   uuid.UUID
	CoDriverID *uuid.UUID
	Window     domain.Window

	// ExcludeTripID omits one trip from the check, so an update does not
	// conflict with the trip's own existing booking.
	ExcludeTripID *uuid.UUID
}

// CheckBookingConflicts returns domain.ErrConflict if the candidate booking
// overlaps an active trip holding the same truck, or the same person in
// either the driver or co-driver seat. Completed and cancelled trips never
// conflict.
//
// The caller must pass repos bound to the same transaction that will insert
// or update the trip: a check against a separate snapshot would race with a
// concurrent booking for the same resource.
func CheckBookingConflicts(ctx context.Context, trips repo.TripRepo, c BookingCheck) error {
	conflicts, err := trips.FindConflicting(ctx, c.TruckID, c.DriverID, c.CoDriverID,
		c.ExcludeTripID, c.Window.Start, c.Window.EffectiveEnd())
	if err != nil {
		return fmt.Errorf("service.CheckBookingConflicts: %w", err)
	}
	if len(conflicts) == 0 {
		return nil
	}

	// Name the truck conflict first when both resources are contested; the
	// caller can only fix one thing at a time.
	for _, other := range conflicts {
		if other.TruckID == c.TruckID {
			return fmt.Errorf("%w: truck is already booked on trip %s", domain.ErrConflict, other.TripNumber)
		}
	}
	return fmt.Errorf("%w: driver is already booked on trip %s", domain.ErrConflict, conflicts[0].TripNumber)
}
