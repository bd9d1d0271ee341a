package session

import (
	"sync"
	"time"

	"neuraresume/internal/errors"
)

// Store keeps UI sessions in memory and evicts those idle for longer than ttl
type Store struct {
	mu       sync.Mutex
	sessions map[string]*State
	ttl      time.Duration
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
	logger   *errors.Logger
}

// NewStore creates a store and starts its janitor. Call Close to stop it.
func NewStore(ttl time.Duration, logger *errors.Logger) *Store {
	s := newStore(ttl, logger)
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	go s.cleanupRoutine(interval)
	return s
}

func newStore(ttl time.Duration, logger *errors.Logger) *Store {
	return &Store{
		sessions: make(map[string]*State),
		ttl:      ttl,
		now:      time.Now,
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// Get returns the session with id and marks it as accessed
func (s *Store) Get(id string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	st.Touch(s.now())
	return st, true
}

// Create registers a new empty session
func (s *Store) Create() *State {
	st := NewState()
	st.Touch(s.now())

	s.mu.Lock()
	s.sessions[st.ID()] = st
	s.mu.Unlock()

	s.logger.Debug("Session created", "session", st.ID())
	return st
}

// GetOrCreate returns the session with id, or a new one when id is unknown.
// created reports whether a new session was made.
func (s *Store) GetOrCreate(id string) (st *State, created bool) {
	if id != "" {
		if st, ok := s.Get(id); ok {
			return st, false
		}
	}
	return s.Create(), true
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes idle sessions and returns how many were evicted. Sessions
// with an operation in flight are kept.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for id, st := range s.sessions {
		if now.Sub(st.LastAccess()) > s.ttl && !st.Busy() {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (s *Store) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("Session cleanup completed",
					"evicted", n,
					"remaining", s.Len())
			}
		case <-s.done:
			return
		}
	}
}

// Close stops the janitor
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}
