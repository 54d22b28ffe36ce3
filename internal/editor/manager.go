package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/smartnotes/internal/apperr"
)

// Manager tracks open sessions by id.
type Manager struct {
	store Store
	opts  Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session registry.
func NewManager(store Store, opts Options) *Manager {
	return &Manager{store: store, opts: opts, sessions: make(map[string]*Session)}
}

// Open starts a session on a note and returns its id.
func (m *Manager) Open(ctx context.Context, noteID string) (string, *Session, error) {
	s, err := Open(ctx, m.store, noteID, m.opts)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return id, s, nil
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close flushes and removes a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return apperr.ErrNotFound
	}
	return s.Close()
}

// CloseAll flushes and removes every session.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	open := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
