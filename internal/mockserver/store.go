package mockserver

import (
	"strings"
	"sync"
	"time"

	"github.com/focusagent/focusagent/internal/clock"
	"github.com/focusagent/focusagent/internal/models"
)

// Session is the single in-memory work session
type Session struct {
	TaskDescription string
	EndsAt          time.Time
	LastSummary     *string
	LastState       *models.FocusState
	LastUpdated     *time.Time
}

// Store holds at most one session. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	clock   clock.Clock
	session *Session
}

// NewStore creates an empty store
func NewStore(clk clock.Clock) *Store {
	return &Store{clock: clk}
}

// Get returns a copy of the session, or nil
func (s *Store) Get() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	out := *s.session
	return &out
}

// Set replaces the session with a new one ending minutes from now
func (s *Store) Set(task string, minutes int) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &Session{
		TaskDescription: strings.TrimSpace(task),
		EndsAt:          s.clock.Now().Add(time.Duration(minutes) * time.Minute),
	}
	out := *s.session
	return &out
}

// Clear drops the session
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// UpdateResult records an analysis on the active session
func (s *Store) UpdateResult(summary string, state models.FocusState) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	now := s.clock.Now()
	s.session.LastSummary = models.String(summary)
	s.session.LastState = models.State(state)
	s.session.LastUpdated = &now
	out := *s.session
	return &out
}

// Expired reports whether the session has run out
func (s *Store) Expired(sess *Session) bool {
	return !s.clock.Now().Before(sess.EndsAt)
}

// Snapshot renders sess the way GET /session returns it
func (s *Store) Snapshot(sess *Session) models.SessionSnapshot {
	remaining := int(sess.EndsAt.Sub(s.clock.Now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	endsAt := sess.EndsAt
	return models.SessionSnapshot{
		TaskDescription:  sess.TaskDescription,
		EndsAt:           &endsAt,
		SecondsRemaining: remaining,
		LastSummary:      sess.LastSummary,
		LastState:        sess.LastState,
		SessionActive:    true,
	}
}
