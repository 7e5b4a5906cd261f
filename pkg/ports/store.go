package ports

import (
	"context"

	"github.com/androfit/agent/pkg/domain"
)

// SessionStore defines the interface for persisting session snapshots.
// This allows transcript recovery after a worker restart and lets multiple
// replicas share session state.
type SessionStore interface {
	// Save persists the session snapshot under its ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all known sessions.
	List(ctx context.Context) ([]string, error)
}
