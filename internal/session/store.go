// Package session keeps per-console interactive state in memory.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/reportdesk/internal/apperr"
	"github.com/starford/reportdesk/internal/menu"
	"github.com/starford/reportdesk/internal/table"
)

// Session is one console's view state. Values are copied in and out of the
// store; a Session returned by the store is never shared with it.
type Session struct {
	ID       string       `json:"id"`
	View     table.State  `json:"view"`
	Sidebar  menu.Sidebar `json:"sidebar"`
	MenuKey  string       `json:"menu_key,omitempty"`
	Selected string       `json:"selected,omitempty"`
	Created  time.Time    `json:"created_at"`
	Updated  time.Time    `json:"updated_at"`
}

// ModalOpen reports whether a report is selected for the details modal.
func (s Session) ModalOpen() bool { return s.Selected != "" }

// Store is a concurrency-safe in-memory session table.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session
	idle     time.Duration
	now      func() time.Time
}

// NewStore creates a store whose sessions expire after idle without updates.
func NewStore(idle time.Duration) *Store {
	return &Store{
		sessions: make(map[string]Session),
		idle:     idle,
		now:      time.Now,
	}
}

// Create starts a new session with an empty view state.
func (s *Store) Create() Session {
	now := s.now()
	sess := Session{ID: uuid.NewString(), Created: now, Updated: now}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session with id.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	return sess, nil
}

// Update applies fn to the session and stores the result. fn runs under the
// store lock and must not call back into the store. If fn returns an error
// the session is left unchanged.
func (s *Store) Update(id string, fn func(Session) (Session, error)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	next, err := fn(sess)
	if err != nil {
		return sess, err
	}
	next.ID = sess.ID
	next.Created = sess.Created
	next.Updated = s.now()
	s.sessions[id] = next
	return next, nil
}

// Delete removes the session. Deleting an unknown id is not an error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle longer than the store's timeout and returns how
// many were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.Updated.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug("session sweep", slog.Int("expired", n), slog.Int("live", s.Len()))
			}
		}
	}
}
