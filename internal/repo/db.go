// Package repo contains all database access logic for the freight trip service.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers to
// be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Beginner is satisfied by *pgxpool.Pool and pgx.Conn; it is the only
// capability the unit of work needs from the connection source.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repos bundles one repository per resource, all backed by the same db.
// Build one over the pool for plain reads, or receive one inside
// UnitOfWork.Run where every repo shares the same transaction.
type Repos struct {
	Trips     TripRepo
	Stops     StopRepo
	Incidents IncidentRepo
	Tracking  TrackingRepo
	FuelLogs  FuelLogRepo
	Trucks    TruckRepo
	Drivers   DriverRepo
	Audit     AuditRepo
}

// NewRepos constructs all repositories over the given db.
func NewRepos(db db) Repos {
	return Repos{
		Trips:     NewTripRepo(db),
		Stops:     NewStopRepo(db),
		Incidents: NewIncidentRepo(db),
		Tracking:  NewTrackingRepo(db),
		FuelLogs:  NewFuelLogRepo(db),
		Trucks:    NewTruckRepo(db),
		Drivers:   NewDriverRepo(db),
		Audit:     NewAuditRepo(db),
	}
}

// UnitOfWork runs a function against a set of repos that share one database
// transaction. The conflict check at trip creation and the row-locked state
// transitions both rely on this: their reads and writes must see one
// consistent snapshot, and the second of two concurrent conflicting requests
// must block on the first's locks rather than race past them.
type UnitOfWork interface {
	// Run begins a transaction, calls fn with transaction-scoped repos, and
	// commits if fn returns nil. Any error from fn rolls everything back and
	// is returned unchanged.
	Run(ctx context.Context, fn func(r Repos) error) error
}

type pgUnitOfWork struct {
	pool Beginner
}

// NewUnitOfWork constructs a UnitOfWork over the given connection source.
// In production pass *pgxpool.Pool.
func NewUnitOfWork(pool Beginner) UnitOfWork {
	return &pgUnitOfWork{pool: pool}
}

func (u *pgUnitOfWork) Run(ctx context.Context, fn func(r Repos) error) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.UnitOfWork.Run: begin: %w", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.UnitOfWork.Run: commit: %w", err)
	}
	return nil
}
