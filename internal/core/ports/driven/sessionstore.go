package driven

import (
	"context"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

// SessionStore persists conversation sessions.
// Access is get-or-create: loading an unseen id yields an empty
// session rather than an error, so SessionNotFound never exists.
type SessionStore interface {
	// Load returns the session for the given id, creating an empty
	// one if the id has not been seen before.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Save stores the session, replacing any previous state.
	Save(ctx context.Context, session *domain.Session) error

	// Delete removes the session entirely. Deleting an unknown id is
	// not an error.
	Delete(ctx context.Context, sessionID string) error

	// IDs returns all stored session ids. Used by idle-expiry sweeps.
	IDs(ctx context.Context) ([]string, error)
}
