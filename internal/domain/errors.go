package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing trip number, missing scheduled departure).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a truck or driver is already committed to an
// overlapping trip. The wrapped message names the contested resource.
// Handlers should map this to HTTP 409 Conflict.
var ErrConflict = errors.New("resource conflict")

// ErrInvalidState is returned when an operation is attempted from a trip
// status that does not permit it (e.g. completing a scheduled trip, resolving
// an already-resolved incident). The wrapped message names the current and
// required states. Handlers should map this to HTTP 409 Conflict.
var ErrInvalidState = errors.New("invalid state")

// ErrInvariant is returned when a monotonicity or consistency check fails:
// an odometer or engine-hour reading going backward, or a driver assigned as
// their own co-driver. Handlers should map this to HTTP 422.
var ErrInvariant = errors.New("invariant violation")
