// Package apperr defines the sentinel errors shared across service layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrStaleBuild marks a view rebuild that was superseded by a newer
	// build or a user edit for the same selector before it completed.
	// Its result is discarded, never persisted.
	ErrStaleBuild = errors.New("stale build")
)
