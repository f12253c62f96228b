package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTransient        = errors.New("transient network error")
	ErrCircuitOpen      = errors.New("upstream circuit open")
	ErrUnresolvedTeam   = errors.New("unresolved team")
	ErrDuplicateMatchup = errors.New("duplicate matchup")
	ErrLockHeld         = errors.New("lock already held")
)

// PersistenceError marks a store failure that aborts an ingestion run.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
