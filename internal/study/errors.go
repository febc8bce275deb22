package study

import (
	"errors"

	"github.com/conorfennell/part66/internal/domain"
)

// Errors returned by the Manager. Use errors.Is to check for them.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidRating    = domain.ErrInvalidRating
	ErrUnknownCard      = errors.New("unknown card")
	ErrModuleNotFound   = errors.New("module not found")
	ErrNoCardsAvailable = errors.New("no cards available")
	ErrSessionNotFound  = errors.New("study session not found")
	ErrSessionNotActive = errors.New("study session is not active")
	ErrCardNotInSession = errors.New("card is not pending in this session")
	ErrProgressConflict = errors.New("progress was modified concurrently")

	// ErrStore tags failures of the underlying store, as opposed to
	// problems with the caller's input.
	ErrStore = errors.New("store failure")
)

type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string { return e.op + ": " + ErrStore.Error() + ": " + e.err.Error() }

func (e *storeError) Is(target error) bool { return target == ErrStore }

func (e *storeError) Unwrap() error { return e.err }

func wrapStore(op string, err error) error {
	return &storeError{op: op, err: err}
}
