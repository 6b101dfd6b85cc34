package domain

import "errors"

var (
	// ErrNotFound is returned when a host, instance or report id is absent.
	ErrNotFound = errors.New("not found")
	// ErrValidation wraps malformed input such as a non-integer port.
	ErrValidation = errors.New("validation failed")
	// ErrReportExists means a report with the same id was already written.
	ErrReportExists = errors.New("report already exists")
)
