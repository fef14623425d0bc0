package service

import "errors"

var (
	// ErrNotStarted is returned by operations invoked before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrUnknownStorage is returned for an unsupported storage backend.
	ErrUnknownStorage = errors.New("unknown storage backend")
)
