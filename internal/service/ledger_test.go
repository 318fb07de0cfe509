package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/tripcore/internal/domain"
)

func validStop(tripID uuid.UUID) domain.TripStop {
	return domain.TripStop{
		TripID:    tripID,
		Type:      domain.StopRest,
		Name:      "Raststätte Garbsen",
		ArrivedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func validIncident(tripID uuid.UUID) domain.TripIncident {
	return domain.TripIncident{
		TripID:      tripID,
		Type:        domain.IncidentBreakdown,
		Severity:    domain.SeverityLow,
		Description: "slow coolant leak",
		OccurredAt:  time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
	}
}

// tripInStatus makes both plain reads and the row lock return a trip in the
// given status.
func (f *fix) tripInStatus(status domain.TripStatus) domain.Trip {
	trip := validTrip()
	trip.ID = uuid.New()
	trip.Status = status
	f.trips.getByID = func(_ context.Context, _ uuid.UUID) (domain.Trip, error) { return trip, nil }
	f.trips.getByIDForUpdate = func(_ context.Context, _ uuid.UUID) (domain.Trip, error) { return trip, nil }
	return trip
}

// ---- stops -----------------------------------------------------------------

func TestLedgerService_AddStop_WhileInProgress(t *testing.T) {
	f := newFix()
	trip := f.tripInStatus(domain.StatusInProgress)

	got, err := f.ledgerService().AddStop(context.Background(), validStop(trip.ID), "u")

	require.NoError(t, err)
	assert.Equal(t, trip.ID, got.TripID)
	assert.Equal(t, []string{domain.ActionStopAdded}, f.audit.actions())
}

func TestLedgerService_AddStop_RejectedOutsideActiveStates(t *testing.T) {
	for _, status := range []domain.TripStatus{
		domain.StatusScheduled, domain.StatusCompleted, domain.StatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFix()
			trip := f.tripInStatus(status)

			_, err := f.ledgerService().AddStop(context.Background(), validStop(trip.ID), "u")

			assert.ErrorIs(t, err, domain.ErrInvalidState)
		})
	}
}

func TestLedgerService_AddStop_UnknownType(t *testing.T) {
	f := newFix()
	stop := validStop(uuid.New())
	stop.Type = "lunch"

	_, err := f.ledgerService().AddStop(context.Background(), stop, "u")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLedgerService_AddStop_DerivesDurationWhenDepartureKnown(t *testing.T) {
	f := newFix()
	trip := f.tripInStatus(domain.StatusInProgress)
	stop := validStop(trip.ID)
	departed := stop.ArrivedAt.Add(45 * time.Minute)
	stop.DepartedAt = &departed

	got, err := f.ledgerService().AddStop(context.Background(), stop, "u")

	require.NoError(t, err)
	require.NotNil(t, got.DurationMinutes)
	assert.Equal(t, 45, *got.DurationMinutes)
}

func TestLedgerService_SetStopDeparture_DerivesDuration(t *testing.T) {
	f := newFix()
	stop := validStop(uuid.New())
	stop.ID = uuid.New()
	f.stops.getByID = func(_ context.Context, _, _ uuid.UUID) (domain.TripStop, error) { return stop, nil }

	var gotMinutes int
	f.stops.setDeparture = func(_ context.Context, _, _ uuid.UUID, departedAt time.Time, durationMinutes int) (domain.TripStop, error) {
		gotMinutes = durationMinutes
		stop.DepartedAt = &departedAt
		stop.DurationMinutes = &durationMinutes
		return stop, nil
	}

	departed := stop.ArrivedAt.Add(90 * time.Minute)
	got, err := f.ledgerService().SetStopDeparture(context.Background(), stop.TripID, stop.ID, departed, "u")

	require.NoError(t, err)
	assert.Equal(t, 90, gotMinutes)
	require.NotNil(t, got.DurationMinutes)
	assert.Equal(t, []string{domain.ActionStopDeparted}, f.audit.actions())
}

func TestLedgerService_SetStopDeparture_OnlyOnce(t *testing.T) {
	f := newFix()
	stop := validStop(uuid.New())
	departed := stop.ArrivedAt.Add(time.Hour)
	stop.DepartedAt = &departed
	f.stops.getByID = func(_ context.Context, _, _ uuid.UUID) (domain.TripStop, error) { return stop, nil }

	_, err := f.ledgerService().SetStopDeparture(context.Background(), stop.TripID, uuid.New(), departed.Add(time.Hour), "u")

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestLedgerService_SetStopDeparture_BeforeArrival(t *testing.T) {
	f := newFix()
	stop := validStop(uuid.New())
	f.stops.getByID = func(_ context.Context, _, _ uuid.UUID) (domain.TripStop, error) { return stop, nil }

	_, err := f.ledgerService().SetStopDeparture(context.Background(), stop.TripID, uuid.New(), stop.ArrivedAt.Add(-time.Minute), "u")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- incidents -------------------------------------------------------------

func TestLedgerService_AddIncident_LowSeverityLeavesStatus(t *testing.T) {
	f := newFix()
	trip := f.tripInStatus(domain.StatusInProgress)
	updateCalled := false
	f.trips.update = func(_ context.Context, tr domain.Trip) (domain.Trip, error) {
		updateCalled = true
		return tr, nil
	}

	_, err := f.ledgerService().AddIncident(context.Background(), validIncident(trip.ID), "u")

	require.NoError(t, err)
	assert.False(t, updateCalled, "a low severity incident must not touch the trip")
	assert.Equal(t, []string{domain.ActionIncidentReport}, f.audit.actions())
}

func TestLedgerService_AddIncident_CriticalForcesDelay(t *testing.T) {
	f := newFix()
	trip := f.tripInStatus(domain.StatusInProgress)

	var updatedTrip domain.Trip
	f.trips.update = func(_ context.Context, tr domain.Trip) (domain.Trip, error) {
		updatedTrip = tr
		return tr, nil
	}

	inc := validIncident(trip.ID)
	inc.Type = domain.IncidentAccident
	inc.Severity = domain.SeverityCritical
	inc.Description = "jackknifed on the A2"

	got, err := f.ledgerService().AddIncident(context.Background(), inc, "driver-3")

	require.NoError(t, err)
	assert.Equal(t, "driver-3", got.ReportedBy)
	assert.Equal(t, domain.StatusDelayed, updatedTrip.Status)
	assert.Equal(t, "accident incident: jackknifed on the A2", updatedTrip.DelayReason)
	assert.Equal(t, []string{domain.ActionIncidentReport, domain.ActionTripDelayed}, f.audit.actions())
}

func TestLedgerService_AddIncident_HighOnDelayedTripNoTransition(t *testing.T) {
	f := newFix()
	trip := f.tripInStatus(domain.StatusDelayed)
	updateCalled := false
	f.trips.update = func(_ context.Context, tr domain.Trip) (domain.Trip, error) {
		updateCalled = true
		return tr, nil
	}

	inc := validIncident(trip.ID)
	inc.Severity = domain.SeverityHigh

	_, err := f.ledgerService().AddIncident(context.Background(), inc, "u")

	require.NoError(t, err)
	assert.False(t, updateCalled, "an already delayed trip stays delayed")
}

func TestLedgerService_AddIncident_MissingDescription(t *testing.T) {
	f := newFix()
	inc := validIncident(uuid.New())
	inc.Description = " "

	_, err := f.ledgerService().AddIncident(context.Background(), inc, "u")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLedgerService_ResolveIncident_Resolves(t *testing.T) {
	f := newFix()
	inc := validIncident(uuid.New())
	inc.ID = uuid.New()
	f.incidents.resolve = func(_ context.Context, _, _ uuid.UUID, resolvedAt time.Time, actualCost *float64) (domain.TripIncident, error) {
		inc.Resolved = true
		inc.ResolvedAt = &resolvedAt
		inc.ActualCost = actualCost
		return inc, nil
	}

	cost := 420.0
	got, err := f.ledgerService().ResolveIncident(context.Background(), inc.TripID, inc.ID, &cost, "u")

	require.NoError(t, err)
	assert.True(t, got.Resolved)
	require.NotNil(t, got.ActualCost)
	assert.Equal(t, 420.0, *got.ActualCost)
}

func TestLedgerService_ResolveIncident_AlreadyResolved(t *testing.T) {
	f := newFix()
	inc := validIncident(uuid.New())
	f.incidents.resolve = func(_ context.Context, _, _ uuid.UUID, _ time.Time, _ *float64) (domain.TripIncident, error) {
		return domain.TripIncident{}, domain.ErrNotFound
	}
	// The incident exists, so the zero-row resolve means it was already done.
	f.incidents.getByID = func(_ context.Context, _, _ uuid.UUID) (domain.TripIncident, error) {
		return inc, nil
	}

	_, err := f.ledgerService().ResolveIncident(context.Background(), inc.TripID, uuid.New(), nil, "u")

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestLedgerService_ResolveIncident_Missing(t *testing.T) {
	f := newFix()
	f.incidents.resolve = func(_ context.Context, _, _ uuid.UUID, _ time.Time, _ *float64) (domain.TripIncident, error) {
		return domain.TripIncident{}, domain.ErrNotFound
	}
	f.incidents.getByID = func(_ context.Context, _, _ uuid.UUID) (domain.TripIncident, error) {
		return domain.TripIncident{}, domain.ErrNotFound
	}

	_, err := f.ledgerService().ResolveIncident(context.Background(), uuid.New(), uuid.New(), nil, "u")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerService_ResolveIncident_NegativeCost(t *testing.T) {
	f := newFix()
	cost := -1.0

	_, err := f.ledgerService().ResolveIncident(context.Background(), uuid.New(), uuid.New(), &cost, "u")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- tracking --------------------------------------------------------------

func TestLedgerService_AddTrackingPoint_Valid(t *testing.T) {
	f := newFix()
	trip := f.tripInStatus(domain.StatusInProgress)

	got, err := f.ledgerService().AddTrackingPoint(context.Background(), domain.TrackingPoint{
		TripID:     trip.ID,
		Latitude:   52.52,
		Longitude:  13.405,
		RecordedAt: time.Now().UTC(),
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Empty(t, f.audit.entries, "telemetry is not audited")
}

func TestLedgerService_AddTrackingPoint_BadCoordinates(t *testing.T) {
	f := newFix()

	_, err := f.ledgerService().AddTrackingPoint(context.Background(), domain.TrackingPoint{
		Latitude:   91,
		Longitude:  13.405,
		RecordedAt: time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.ledgerService().AddTrackingPoint(context.Background(), domain.TrackingPoint{
		Latitude:   52.52,
		Longitude:  -181,
		RecordedAt: time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLedgerService_ListTracking_NilBecomesEmptySlice(t *testing.T) {
	f := newFix()
	trip := f.tripInStatus(domain.StatusInProgress)
	f.tracking.listByTripID = func(_ context.Context, _ uuid.UUID, _ domain.TimeRange) ([]domain.TrackingPoint, error) {
		return nil, nil
	}

	points, err := f.ledgerService().ListTracking(context.Background(), trip.ID, domain.TimeRange{})

	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}
