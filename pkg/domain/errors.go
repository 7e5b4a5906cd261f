package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrQueueClosed is returned by a job queue after Close.
var ErrQueueClosed = errors.New("job queue closed")

// Profile validation errors.
var (
	ErrProfileName         = errors.New("profile: name is required")
	ErrProfileInstructions = errors.New("profile: instructions are required")
)

// Job validation errors.
var (
	ErrJobID   = errors.New("job: id is required")
	ErrJobKind = errors.New("job: unknown kind")
	ErrJobRoom = errors.New("job: room is required for room jobs")
)
