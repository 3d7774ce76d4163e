// Package apperr defines the sentinel errors shared across filecat packages.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrInvalidFilterPattern is returned when a filter rule does not compile.
	// The whole FilterConfig is rejected.
	ErrInvalidFilterPattern = errors.New("invalid filter pattern")

	// ErrPersistenceUnavailable is reported (never returned through the
	// catalog) when the expansion backend cannot be read or written.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrDuplicatePath is reported when two entries share a path.
	// The last occurrence wins.
	ErrDuplicatePath = errors.New("duplicate path")

	// ErrInvalidPath is reported for entries whose path is not absolute,
	// ends in "/" or contains an empty segment.
	ErrInvalidPath = errors.New("invalid path")
)
