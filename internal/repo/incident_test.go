package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/tripcore/internal/domain"
	"github.com/fleetops/tripcore/internal/repo"
)

func incidentFixture(tripID uuid.UUID) domain.TripIncident {
	return domain.TripIncident{
		TripID:      tripID,
		Type:        domain.IncidentBreakdown,
		Severity:    domain.SeverityMedium,
		Description: "slow coolant leak",
		OccurredAt:  time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		ReportedBy:  "driver-3",
	}
}

func TestIncidentRepo_Create(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewRepos(tx)
	ctx := context.Background()

	trip := seedTrip(t, tx, r)
	got, err := r.Incidents.Create(ctx, incidentFixture(trip.ID))

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.Resolved)
	assert.Nil(t, got.ResolvedAt)
	assert.Equal(t, "driver-3", got.ReportedBy)
}

func TestIncidentRepo_Resolve_Once(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewRepos(tx)
	ctx := context.Background()

	trip := seedTrip(t, tx, r)
	inc, err := r.Incidents.Create(ctx, incidentFixture(trip.ID))
	require.NoError(t, err)

	cost := 420.0
	resolvedAt := inc.OccurredAt.Add(2 * time.Hour)
	got, err := r.Incidents.Resolve(ctx, trip.ID, inc.ID, resolvedAt, &cost)

	require.NoError(t, err)
	assert.True(t, got.Resolved)
	require.NotNil(t, got.ResolvedAt)
	require.NotNil(t, got.ActualCost)
	assert.Equal(t, 420.0, *got.ActualCost)

	// Second resolve matches zero rows: resolution happens at most once.
	_, err = r.Incidents.Resolve(ctx, trip.ID, inc.ID, resolvedAt.Add(time.Hour), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIncidentRepo_ListByTripID_OccurrenceOrder(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewRepos(tx)
	ctx := context.Background()

	trip := seedTrip(t, tx, r)

	second := incidentFixture(trip.ID)
	second.Description = "second"
	second.OccurredAt = second.OccurredAt.Add(3 * time.Hour)
	_, err := r.Incidents.Create(ctx, second)
	require.NoError(t, err)

	first := incidentFixture(trip.ID)
	first.Description = "first"
	_, err = r.Incidents.Create(ctx, first)
	require.NoError(t, err)

	incidents, err := r.Incidents.ListByTripID(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, incidents, 2)
	assert.Equal(t, "first", incidents[0].Description)
	assert.Equal(t, "second", incidents[1].Description)
}
