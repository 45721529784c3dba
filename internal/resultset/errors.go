package resultset

import "errors"

// Usage errors. Each one means the caller broke the result-set contract
// (wrong column name, stale query shape, reading NULL as a typed value).
// They are never transient and must not be retried.
var (
	// ErrNoResult is returned when reading from a statement that produced no result set.
	ErrNoResult = errors.New("result is null")

	// ErrOutOfRange is returned for row/column indices outside the result.
	ErrOutOfRange = errors.New("index out of range")

	// ErrColumnNotFound is returned when no column has the requested name.
	ErrColumnNotFound = errors.New("column name not found")

	// ErrNullValue is returned when a NULL value is read through a typed accessor.
	ErrNullValue = errors.New("null value")

	// ErrConversion wraps a failure to parse a value as the requested type.
	ErrConversion = errors.New("value conversion failed")
)
