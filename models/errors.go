package models

import (
	"errors"
)

// Domain error taxonomy. Repositories and services wrap these so callers
// can classify failures with errors.Is; the HTTP layer maps them to
// status codes.
var (
	// ErrInvalidArgument marks missing or malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientFunds marks a debit that would drive a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound marks a referenced entity that is absent or no longer in
	// the required state. Losing a settlement race surfaces as ErrNotFound
	// because the state predicate is the concurrency guard.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an operation attempted by a non-owner.
	ErrForbidden = errors.New("forbidden")
)
