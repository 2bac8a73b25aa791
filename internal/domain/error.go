package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrMissingTitle       = errors.New("notification title is required")
	ErrQueueFull          = errors.New("dispatch queue is full")
	ErrQueueStopped       = errors.New("dispatch queue is stopped")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction executor")
)
