// Package memstore implements session.Store in memory, for tests and for
// callers that don't need session state to survive the process.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/agentbackplane/abp/session"
)

// Store is an in-memory session.Store. Construct it with New; the zero value
// has no maps allocated and is not ready to use.
type Store struct {
	mu       sync.Mutex
	sessions map[string]session.Session
	runs     map[string]session.RunMeta
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		sessions: make(map[string]session.Session),
		runs:     make(map[string]session.RunMeta),
	}
}

// CreateSession creates sessionID if absent, or returns the existing record
// if it is still active. It returns session.ErrSessionEnded if the session
// already exists but has ended.
func (s *Store) CreateSession(_ context.Context, sessionID string, createdAt time.Time) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		if existing.Status == session.StatusEnded {
			return session.Session{}, session.ErrSessionEnded
		}
		return existing, nil
	}
	sess := session.Session{ID: sessionID, Status: session.StatusActive, CreatedAt: createdAt}
	s.sessions[sessionID] = sess
	return sess, nil
}

// LoadSession returns session.ErrSessionNotFound if sessionID is unknown.
func (s *Store) LoadSession(_ context.Context, sessionID string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	return sess, nil
}

// EndSession marks sessionID terminal. Calling it again on an already-ended
// session is a no-op that returns the existing terminal state.
func (s *Store) EndSession(_ context.Context, sessionID string, endedAt time.Time) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return session.Session{}, session.ErrSessionNotFound
	}
	if sess.Status == session.StatusEnded {
		return sess, nil
	}
	endedAtCopy := endedAt
	sess.Status = session.StatusEnded
	sess.EndedAt = &endedAtCopy
	s.sessions[sessionID] = sess
	return sess, nil
}

// UpsertRun inserts or replaces run's metadata record, keyed by RunID.
func (s *Store) UpsertRun(_ context.Context, run session.RunMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = run
	return nil
}

// LoadRun returns session.ErrRunNotFound if runID is unknown.
func (s *Store) LoadRun(_ context.Context, runID string) (session.RunMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return session.RunMeta{}, session.ErrRunNotFound
	}
	return run, nil
}

// ListRunsBySession returns every run whose SessionID matches sessionID,
// optionally filtered to the given statuses.
func (s *Store) ListRunsBySession(_ context.Context, sessionID string, statuses []session.RunStatus) ([]session.RunMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allow := make(map[session.RunStatus]bool, len(statuses))
	for _, st := range statuses {
		allow[st] = true
	}
	var out []session.RunMeta
	for _, run := range s.runs {
		if run.SessionID != sessionID {
			continue
		}
		if len(allow) > 0 && !allow[run.Status] {
			continue
		}
		out = append(out, run)
	}
	return out, nil
}
