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

// AuditRepo is the append-only audit sink. There is no update or delete:
// the trail is immutable once written.
type AuditRepo interface {
	Create(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error)

	// ListByEntity returns the audit trail for one entity, oldest first.
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]domain.AuditEntry, error)
}

type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs an AuditRepo backed by the provided db connection.
func NewAuditRepo(db db) AuditRepo {
	return &pgAuditRepo{db: db}
}

const auditColumns = `id, action, performed_by, entity_type, entity_id, description, created_at`

func (r *pgAuditRepo) Create(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	const q = `
		INSERT INTO audit_logs (action, performed_by, entity_type, entity_id, description)
		VALUES (@action, @performed_by, @entity_type, @entity_id, @description)
		RETURNING ` + auditColumns

	args := pgx.NamedArgs{
		"action":       entry.Action,
		"performed_by": entry.PerformedBy,
		"entity_type":  entry.EntityType,
		"entity_id":    entry.EntityID,
		"description":  entry.Description,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanAuditEntry(row)
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("repo.AuditRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgAuditRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]domain.AuditEntry, error) {
	const q = `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE entity_type = @entity_type AND entity_id = @entity_id
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"entity_type": entityType, "entity_id": entityID})
	if err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.ListByEntity: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.AuditRepo.ListByEntity: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.ListByEntity: rows: %w", err)
	}
	return entries, nil
}

func scanAuditEntry(s scanner) (domain.AuditEntry, error) {
	var (
		e        domain.AuditEntry
		id       pgtype.UUID
		entityID pgtype.UUID
	)

	err := s.Scan(&id, &e.Action, &e.PerformedBy, &e.EntityType, &entityID, &e.Description, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AuditEntry{}, domain.ErrNotFound
		}
		return domain.AuditEntry{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.EntityID = uuid.UUID(entityID.Bytes)
	return e, nil
}
