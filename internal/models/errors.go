package models

import "errors"

var (
	// ErrValidation is returned when a request is rejected before any work is applied.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a referenced event, result, user or question does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEventLocked is returned when a submission arrives after the event stopped accepting them.
	ErrEventLocked = errors.New("event is locked")
)
