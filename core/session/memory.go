package session

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]Session
	now      func() time.Time
}

// NewMemoryStore constructs an in-process Store for tests and single-instance
// deployments. Multi-instance deployments need the shared Postgres store.
func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		ttl:      ttl,
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Get returns the live session for a phone, deleting it first if expired.
func (m *memoryStore) Get(_ context.Context, phone string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[phone]
	if !ok {
		return nil, nil
	}
	if m.now().Sub(sess.Touched) > m.ttl || !sess.Step.Valid() {
		delete(m.sessions, phone)
		return nil, nil
	}
	out := sess
	return &out, nil
}

// Set overwrites the session for a phone and refreshes its timestamp.
func (m *memoryStore) Set(_ context.Context, phone string, sess Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess.Touched = m.now()
	m.sessions[phone] = sess
	return nil
}

// Clear removes the session for a phone.
func (m *memoryStore) Clear(_ context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, phone)
	return nil
}
