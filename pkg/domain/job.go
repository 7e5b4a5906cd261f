package domain

import "time"

// JobKind identifies what kind of session a job should spawn.
type JobKind string

const (
	// JobKindRoom asks the worker to join a media room and run a voice session.
	JobKindRoom JobKind = "room"
	// JobKindText asks the worker to run a text-only session (no audio legs).
	JobKindText JobKind = "text"
)

// Job is a unit of work handed to the worker. One job produces one agent
// session.
type Job struct {
	ID   string  `json:"id"`
	Kind JobKind `json:"kind"`

	// Room is the media room to join for JobKindRoom jobs.
	Room string `json:"room,omitempty"`

	// ProfileName selects a configured profile; empty means the default.
	ProfileName string `json:"profile_name,omitempty"`

	// Metadata carries dispatcher-specific key/values, passed through to hooks.
	Metadata map[string]string `json:"metadata,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at,omitempty"`
}

// Validate checks the job is well-formed enough to run.
func (j Job) Validate() error {
	if j.ID == "" {
		return ErrJobID
	}
	switch j.Kind {
	case JobKindRoom:
		if j.Room == "" {
			return ErrJobRoom
		}
	case JobKindText:
	default:
		return ErrJobKind
	}
	return nil
}
