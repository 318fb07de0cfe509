// Package service contains the business logic for the freight trip service.
// Services validate inputs, enforce the trip state machine and booking
// invariants, and orchestrate repo calls. No SQL lives here — services depend
// on repo interfaces, not implementations.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fleetops/tripcore/internal/domain"
	"github.com/fleetops/tripcore/internal/repo"
)

// Entity types recorded in the audit trail.
const (
	EntityTrip    = "trip"
	EntityFuelLog = "fuel_log"
)

// Emitter writes audit entries after successful mutations.
//
// Emission is fire-and-forget: it runs outside the primary transaction, after
// commit, and a failed write is logged for operators but never propagated.
// The trade-off is eventual consistency of the trail: an audit row can be
// lost, but a trip mutation can never be rolled back by its audit record.
type Emitter struct {
	audit repo.AuditRepo
	log   *slog.Logger
}

// NewEmitter constructs an Emitter over the given audit repo.
func NewEmitter(audit repo.AuditRepo, log *slog.Logger) *Emitter {
	return &Emitter{audit: audit, log: log}
}

// Emit records one audit entry. Errors are logged, never returned.
func (e *Emitter) Emit(ctx context.Context, action, performedBy, entityType string, entityID uuid.UUID, description string) {
	entry := domain.AuditEntry{
		Action:      action,
		PerformedBy: performedBy,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
	}
	if _, err := e.audit.Create(ctx, entry); err != nil {
		e.log.ErrorContext(ctx, "audit write failed",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}
