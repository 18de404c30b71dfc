package session

import (
	"sync"
	"time"

	"dataviz/adapters/render"
	"dataviz/domain/chart"
	"dataviz/domain/core"
	"dataviz/domain/table"
	apperrors "dataviz/internal/errors"
)

// Session is one user's workspace: at most one loaded table and the chart
// generated from it. Sessions handed out by the Store are snapshots; updates
// go through the Store and replace fields wholesale.
type Session struct {
	ID        core.ID
	Table     *table.Table
	Plan      *chart.Plan
	Figure    *render.Figure
	CreatedAt time.Time
	TouchedAt time.Time
}

// HasTable reports whether a table is loaded
func (s Session) HasTable() bool {
	return s.Table != nil
}

// HasChart reports whether a chart has been generated for the loaded table
func (s Session) HasChart() bool {
	return s.Plan != nil && s.Figure != nil
}

// Store is an in-memory session registry
type Store struct {
	mu       sync.RWMutex
	sessions map[core.ID]*Session
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		sessions: make(map[core.ID]*Session),
		now:      time.Now,
	}
}

// Create registers a new empty session
func (s *Store) Create() Session {
	now := s.now()
	sess := &Session{
		ID:        core.NewID(),
		CreatedAt: now,
		TouchedAt: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return *sess
}

// Get returns a snapshot of the session
func (s *Store) Get(id core.ID) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, apperrors.NotFound("session " + id.String())
	}
	sess.TouchedAt = s.now()
	return *sess, nil
}

// Delete removes the session; deleting an unknown session is a no-op
func (s *Store) Delete(id core.ID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// SetTable loads t into the session, discarding any chart built from the previous table
func (s *Store) SetTable(id core.ID, t *table.Table) error {
	return s.update(id, func(sess *Session) error {
		sess.Table = t
		sess.Plan = nil
		sess.Figure = nil
		return nil
	})
}

// ClearTable returns the session to the no-table state
func (s *Store) ClearTable(id core.ID) error {
	return s.SetTable(id, nil)
}

// SetChart records the plan and figure rendered from source. It fails when
// another upload replaced the table while the chart was being rendered.
func (s *Store) SetChart(id core.ID, source *table.Table, plan chart.Plan, fig *render.Figure) error {
	return s.update(id, func(sess *Session) error {
		if sess.Table == nil || sess.Table != source {
			return apperrors.New(apperrors.CodeValidationError, "the table changed while the chart was being generated")
		}
		sess.Plan = &plan
		sess.Figure = fig
		return nil
	})
}

func (s *Store) update(id core.ID, apply func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return apperrors.NotFound("session " + id.String())
	}
	next := *sess
	if err := apply(&next); err != nil {
		return err
	}
	next.TouchedAt = s.now()
	s.sessions[id] = &next
	return nil
}

// CleanupExpired removes sessions untouched for longer than olderThan and
// returns how many were removed
func (s *Store) CleanupExpired(olderThan time.Duration) int {
	cutoff := s.now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.TouchedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
