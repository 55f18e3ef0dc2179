// Package session holds the process-wide mapping of session identifier
// to (index, chat history). Sessions are in-memory only: a restart
// discards them, idle sessions are evicted by TTL.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/S1nghAryan/pbl-4/internal/document"
	"github.com/S1nghAryan/pbl-4/internal/index"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("session not found")

// Session pairs one immutable index with an accumulating chat history.
// The mutex guards history and the idle timestamp; the index is
// read-only after build and safe for concurrent queries.
type Session struct {
	mu sync.Mutex

	ID       string
	Filename string

	idx     index.Index
	history []document.Turn
	touched time.Time
}

// Index returns the session's retrieval index.
func (s *Session) Index() index.Index {
	return s.idx
}

// History returns a copy of the turns in arrival order.
func (s *Session) History() []document.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]document.Turn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) appendTurn(turn document.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, turn)
	s.touched = time.Now()
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create allocates a fresh session owning the given index and an empty
// history, and returns its identifier.
func (s *Store) Create(idx index.Index, filename string) string {
	sess := &Session{
		ID:       uuid.NewString(),
		Filename: filename,
		idx:      idx,
		touched:  time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.ID
}

// Get looks up a session and marks it as recently used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.touch()
	return sess, nil
}

// AppendTurn appends one completed turn to the session's history,
// preserving arrival order.
func (s *Store) AppendTurn(id string, turn document.Turn) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	sess.appendTurn(turn)
	return nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup evicts sessions idle for longer than the TTL.
func (s *Store) Cleanup() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
