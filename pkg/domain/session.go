package domain

import "time"

// SessionStatus defines the current mode of a session.
type SessionStatus string

const (
	StatusActive   SessionStatus = "active"   // Normal operation
	StatusDraining SessionStatus = "draining" // Shutdown requested, finishing the current turn
	StatusClosed   SessionStatus = "closed"   // Session ended
	StatusFailed   SessionStatus = "failed"   // Session ended with an error
)

// Session is the persisted snapshot of an agent session. It is what the
// SessionStore saves on turn boundaries and on close, enabling transcript
// recovery after a worker restart.
type Session struct {
	// ID is the unique session identifier.
	ID string `json:"id"`

	// JobID links the session back to the job that spawned it.
	JobID string `json:"job_id,omitempty"`

	// Profile is the persona the session runs with.
	Profile Profile `json:"profile"`

	// Status indicates whether the session is running, draining, or done.
	Status SessionStatus `json:"status"`

	// Transcript holds the conversation so far.
	Transcript Transcript `json:"transcript"`

	// StartedAt and EndedAt bound the session lifetime.
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`

	// Error records the failure reason when Status == StatusFailed.
	Error string `json:"error,omitempty"`
}

// NewSession creates a clean session for the given profile.
func NewSession(id string, profile Profile) *Session {
	return &Session{
		ID:        id,
		Profile:   profile,
		Status:    StatusActive,
		StartedAt: time.Now().UTC(),
	}
}

// Close marks the session as ended. A non-nil err flips the status to failed
// and records the reason; the transcript is kept either way.
func (s *Session) Close(err error) {
	s.EndedAt = time.Now().UTC()
	if err != nil {
		s.Status = StatusFailed
		s.Error = err.Error()
		return
	}
	s.Status = StatusClosed
}
