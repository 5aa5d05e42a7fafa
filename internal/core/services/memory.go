package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driving"
	"github.com/lodestar-labs/ansa-cli/internal/logger"
)

// Ensure MemoryService implements the interface.
var _ driving.SessionService = (*MemoryService)(nil)

// Session memory defaults.
const (
	DefaultMaxTurns   = 10
	DefaultSessionTTL = 24 * time.Hour

	// lockStripes is the number of mutexes session ids hash onto.
	// Sessions on different stripes never contend.
	lockStripes = 64
)

// MemoryConfig tunes session memory behaviour.
type MemoryConfig struct {
	// MaxTurns bounds each session's history; oldest turns are evicted
	// first. Zero or negative means the default.
	MaxTurns int

	// TTL is how long an untouched session survives before Sweep
	// removes it. Zero or negative means the default.
	TTL time.Duration
}

// MemoryService manages bounded per-session conversation histories.
// Concurrent requests for the same session id serialise on a striped
// mutex so appends cannot interleave; independent sessions proceed in
// parallel.
type MemoryService struct {
	store    driven.SessionStore
	maxTurns int
	ttl      time.Duration
	locks    [lockStripes]sync.Mutex
}

// NewMemoryService creates a session memory service.
func NewMemoryService(store driven.SessionStore, cfg MemoryConfig) *MemoryService {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	return &MemoryService{
		store:    store,
		maxTurns: cfg.MaxTurns,
		ttl:      cfg.TTL,
	}
}

// lockFor returns the stripe mutex for a session id.
func (s *MemoryService) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockStripes]
}

// History returns the session's turns, oldest first. Unknown ids yield
// an empty history; reading refreshes the idle timer.
func (s *MemoryService) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	session.LastAccess = time.Now().UTC()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("touch session %s: %w", sessionID, err)
	}
	return session.Turns, nil
}

// Record appends a completed turn, evicting beyond the maximum.
func (s *MemoryService) Record(ctx context.Context, sessionID string, turn domain.Turn) error {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	session.Append(turn, s.maxTurns)
	session.LastAccess = time.Now().UTC()

	if err := s.store.Save(ctx, session); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	logger.Debug("Session %s: %d turns", sessionID, len(session.Turns))
	return nil
}

// Clear removes the session entirely.
func (s *MemoryService) Clear(ctx context.Context, sessionID string) error {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// Sweep removes sessions idle beyond the TTL and reports how many were
// removed.
func (s *MemoryService) Sweep(ctx context.Context) (int, error) {
	ids, err := s.store.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	now := time.Now().UTC()
	removed := 0
	for _, id := range ids {
		expired, err := s.sweepOne(ctx, id, now)
		if err != nil {
			return removed, err
		}
		if expired {
			removed++
		}
	}
	logger.Info("Session sweep removed %d of %d sessions", removed, len(ids))
	return removed, nil
}

// sweepOne expires a single session if idle, under its stripe lock.
func (s *MemoryService) sweepOne(ctx context.Context, sessionID string, now time.Time) (bool, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if !session.IdleSince(now, s.ttl) {
		return false, nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return false, fmt.Errorf("expire session %s: %w", sessionID, err)
	}
	logger.Debug("Expired idle session %s", sessionID)
	return true, nil
}
