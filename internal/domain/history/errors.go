package history

import "errors"

var (
	// ErrNotFound is returned when no record exists for an ID.
	ErrNotFound = errors.New("history record not found")
	// ErrInvalidPage is returned for page < 1 or size outside [1, MaxPageSize].
	ErrInvalidPage = errors.New("invalid page parameters")
	// ErrFeedbackExists is returned by stores when a record already carries actual salaries.
	ErrFeedbackExists = errors.New("feedback already recorded")
)
