package driving

import (
	"context"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

// QAService answers questions with retrieval-augmented generation and
// per-session dialogue memory.
type QAService interface {
	// Ask answers a question within a session. The turn is recorded
	// in session memory only after generation succeeds; a failed
	// request leaves the session untouched.
	Ask(ctx context.Context, sessionID, question string) (*domain.Answer, error)
}

// SessionService manages conversation histories.
type SessionService interface {
	// History returns the session's turns, oldest first. Unknown ids
	// yield an empty history.
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// Record appends a completed turn, evicting oldest turns beyond
	// the configured maximum.
	Record(ctx context.Context, sessionID string, turn domain.Turn) error

	// Clear removes the session entirely. A subsequent History
	// recreates it empty.
	Clear(ctx context.Context, sessionID string) error

	// Sweep removes sessions idle for longer than the configured TTL
	// and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}
