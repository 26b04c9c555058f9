// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation (duplicate award, grant, or level).
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates malformed input (negative grant amount, nil ids).
	ErrValidation = errors.New("validation")

	// ErrSelfAward indicates an attempt to award trust to oneself.
	ErrSelfAward = errors.New("self award")

	// ErrInconsistent indicates the history ledger sum disagrees with the
	// live-table score. Internal: detected by the audit routine, never
	// returned from regular read/write paths.
	ErrInconsistent = errors.New("ledger inconsistent")
)
