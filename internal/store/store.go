// Package store owns every interview session and candidate record. All
// mutations to one session are serialised behind a per-entry mutex, so a
// violation-triggered termination can never race a manual submit into two
// terminal outcomes. Cross-session operations share no lock beyond the map
// itself.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/models"
)

var (
	// ErrSessionNotFound indicates the session id is unknown to the store.
	ErrSessionNotFound = errors.New("session not found")
	// ErrCandidateNotFound indicates the candidate id is unknown to the store.
	ErrCandidateNotFound = errors.New("candidate not found")
)

type entry struct {
	mu      sync.Mutex
	session *models.Session

	// scored is closed exactly once when the session's result is published.
	// Late submitters and result readers wait on it instead of rescoring.
	scored     chan struct{}
	scoredOnce sync.Once
}

// Store is the in-memory source of truth for sessions and candidates.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*entry
	candidates map[string]models.Candidate

	ttl    time.Duration
	logger zerolog.Logger
}

// New constructs a store. Terminal sessions older than ttl are evicted by the
// janitor started via Start; ttl <= 0 disables eviction.
func New(ttl time.Duration, logger zerolog.Logger) *Store {
	return &Store{
		sessions:   make(map[string]*entry),
		candidates: make(map[string]models.Candidate),
		ttl:        ttl,
		logger:     logger.With().Str("component", "session_store").Logger(),
	}
}

// AddCandidate registers a candidate record.
func (s *Store) AddCandidate(candidate models.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[candidate.ID] = candidate
}

// Candidate returns the candidate with the given id.
func (s *Store) Candidate(id string) (models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidate, ok := s.candidates[id]
	if !ok {
		return models.Candidate{}, ErrCandidateNotFound
	}
	return candidate, nil
}

// CreateSession registers a new session. The store takes ownership of the
// value; callers must not retain the pointer.
func (s *Store) CreateSession(session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &entry{
		session: session,
		scored:  make(chan struct{}),
	}
}

// Session returns a deep copy of the session with the given id.
func (s *Store) Session(id string) (*models.Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

// Mutate applies fn to the session under its entry lock and returns a deep
// copy of the post-mutation state. Returning an error from fn aborts the
// mutation.
func (s *Store) Mutate(id string, fn func(*models.Session) error) (*models.Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.session); err != nil {
		return nil, err
	}
	return e.session.Clone(), nil
}

// PublishResult attaches the computed result under the entry lock and wakes
// every waiter. Publishing is idempotent: only the first call attaches.
func (s *Store) PublishResult(id string, result *models.InterviewResult) (*models.Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.session.Result == nil {
		e.session.Result = result
	}
	clone := e.session.Clone()
	e.mu.Unlock()

	e.scoredOnce.Do(func() { close(e.scored) })
	return clone, nil
}

// AwaitResult blocks until the session's result is published, then returns a
// copy of the session. It honours context cancellation.
func (s *Store) AwaitResult(ctx context.Context, id string) (*models.Session, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	select {
	case <-e.scored:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

// List returns copies of every session, newest first.
func (s *Store) List() []*models.Session {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sessions := make([]*models.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		sessions = append(sessions, e.session.Clone())
		e.mu.Unlock()
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions
}

// ListByCandidate returns copies of the candidate's sessions, newest first.
func (s *Store) ListByCandidate(candidateID string) []*models.Session {
	all := s.List()
	filtered := all[:0]
	for _, session := range all {
		if session.CandidateID == candidateID {
			filtered = append(filtered, session)
		}
	}
	return filtered
}

// Start runs the eviction janitor until ctx is cancelled. Terminal sessions
// whose completion is older than the configured TTL are dropped to bound
// memory over long process lifetimes.
func (s *Store) Start(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}

	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				evicted := s.evictExpired(time.Now())
				if evicted > 0 {
					s.logger.Info().Int("evicted", evicted).Msg("evicted expired sessions")
				}
			}
		}
	}()
}

func (s *Store) evictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		expired := e.session.State.Terminal() &&
			e.session.Result != nil &&
			now.Sub(e.session.Result.CompletedAt) > s.ttl
		e.mu.Unlock()

		if expired {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (s *Store) entry(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}
