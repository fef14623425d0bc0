package feedback

import "errors"

var (
	// ErrInvalidSalary is returned for an empty list or a non-positive value.
	ErrInvalidSalary = errors.New("actual salaries must be positive")
	// ErrNotFound is returned when the history record does not exist.
	ErrNotFound = errors.New("prediction history not found")
	// ErrCardinalityMismatch is returned when the salary count differs from data_count.
	ErrCardinalityMismatch = errors.New("actual salary count does not match prediction count")
	// ErrAlreadySubmitted is returned when feedback was recorded before.
	ErrAlreadySubmitted = errors.New("feedback already submitted")
)
