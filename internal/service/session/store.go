package session

import (
	"errors"
	"sync"
	"time"

	"github.com/seunghwan-dev/chingu/backend/internal/model/chat"
)

var ErrSessionNotFound = errors.New("session not found")

// MemoryStore keeps per-session conversation turns in process memory.
// The outer RWMutex only guards the map; each session carries its own lock
// so one slow conversation never blocks the others, and an exchange
// (user turn + assistant turn) is appended atomically.
//
// Sessions are never persisted and die with the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	maxTurns int
}

type entry struct {
	mu      sync.Mutex
	created time.Time
	turns   []chat.Turn
}

// NewMemoryStore bootstraps the store. maxTurns bounds per-session growth;
// zero means unbounded. When the cap is hit the oldest non-system turns are
// dropped; the system turn always survives.
func NewMemoryStore(maxTurns int) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*entry),
		maxTurns: maxTurns,
	}
}

// GetOrCreate returns a snapshot of the session history, creating the
// session with the supplied system turn on first touch. The second result
// distinguishes first-touch from repeat access.
func (s *MemoryStore) GetOrCreate(id string, system chat.Turn) ([]chat.Turn, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		s.mu.Lock()
		e, ok = s.sessions[id]
		if !ok {
			e = &entry{
				created: time.Now().UTC(),
				turns:   []chat.Turn{system},
			}
			s.sessions[id] = e
		}
		s.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.turns), !ok
}

// Get returns the session history without creating anything.
func (s *MemoryStore) Get(id string) ([]chat.Turn, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.turns), true
}

// Snapshot returns the full session record without creating anything.
func (s *MemoryStore) Snapshot(id string) (chat.Session, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return chat.Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return chat.Session{
		ID:        id,
		Turns:     snapshot(e.turns),
		CreatedAt: e.created,
	}, true
}

// Append adds turns to an existing session in call order.
func (s *MemoryStore) Append(id string, turns ...chat.Turn) error {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns = append(e.turns, turns...)
	s.trimLocked(e)
	return nil
}

// AppendExchange appends a completed user/assistant exchange atomically,
// so a failed upstream call never leaves a dangling user turn and two
// concurrent exchanges cannot interleave.
func (s *MemoryStore) AppendExchange(id string, user, assistant chat.Turn) error {
	return s.Append(id, user, assistant)
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) trimLocked(e *entry) {
	if s.maxTurns <= 0 || len(e.turns) <= s.maxTurns {
		return
	}
	// Keep the system turn plus the most recent maxTurns-1 turns.
	keep := s.maxTurns - 1
	trimmed := make([]chat.Turn, 0, s.maxTurns)
	trimmed = append(trimmed, e.turns[0])
	trimmed = append(trimmed, e.turns[len(e.turns)-keep:]...)
	e.turns = trimmed
}

func snapshot(turns []chat.Turn) []chat.Turn {
	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied
}
