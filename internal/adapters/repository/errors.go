package repository

import "errors"

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store closed")
	// ErrInvalidRecord is returned when a record's arrays disagree with DataCount.
	ErrInvalidRecord = errors.New("invalid history record")
	// ErrCorruptRow is returned when a persisted row cannot be decoded.
	ErrCorruptRow = errors.New("corrupt history row")
)
