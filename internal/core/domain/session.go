package domain

import "time"

// Turn is a single question/answer exchange within a session.
type Turn struct {
	// Question is the user's question text.
	Question string

	// Answer is the assistant's answer text.
	Answer string

	// Label records how the question was classified.
	Label QueryLabel

	// CreatedAt is when the turn was recorded.
	CreatedAt time.Time
}

// Session is a bounded, ordered conversation history keyed by an
// opaque caller-supplied identifier. Sessions are created implicitly
// on first access and only ever mutated by appending turns.
type Session struct {
	// ID is the caller-supplied session identifier.
	ID string

	// Turns is the ordered history, oldest first.
	Turns []Turn

	// LastAccess is updated on every read or append and drives
	// idle-timeout expiry.
	LastAccess time.Time
}

// Append adds a turn, evicting the oldest turns first so the session
// never holds more than maxTurns entries. maxTurns <= 0 means
// unbounded.
func (s *Session) Append(turn Turn, maxTurns int) {
	s.Turns = append(s.Turns, turn)
	if maxTurns > 0 && len(s.Turns) > maxTurns {
		s.Turns = s.Turns[len(s.Turns)-maxTurns:]
	}
}

// Recent returns the last n turns, oldest first. n <= 0 returns all.
func (s *Session) Recent(n int) []Turn {
	if n <= 0 || len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

// IdleSince reports whether the session has been untouched for longer
// than ttl. A zero ttl disables expiry.
func (s *Session) IdleSince(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.LastAccess) > ttl
}
