package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/talentlens/talentlens/internal/domain/sessions"
)

// Memory is the process-local session table. All read-modify-write goes
// through one mutex so a status read can never race a completion write from
// the background analysis goroutine. State is lost on restart; the Store
// port exists so a durable implementation can replace this one.
type Memory struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]*domain.Session
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[domain.SessionID]*domain.Session),
		now:      time.Now,
	}
}

// NewMemoryWithClock is for tests that need deterministic timestamps.
func NewMemoryWithClock(now func() time.Time) *Memory {
	m := NewMemory()
	m.now = now
	return m
}

func (m *Memory) Create(_ context.Context, field domain.Field) (*domain.Session, error) {
	if !field.Valid() {
		return nil, domain.ErrInvalidField
	}
	s := &domain.Session{
		ID:        domain.SessionID("sess_" + uuid.New().String()),
		Field:     field,
		Status:    domain.StatusPending,
		CreatedAt: m.now().UTC(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s.Clone(), nil
}

func (m *Memory) Get(_ context.Context, id domain.SessionID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) Update(_ context.Context, id domain.SessionID, mutate func(*domain.Session) error) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.Status.Terminal() {
		return nil, domain.ErrInvalidState
	}
	if err := mutate(s); err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

func (m *Memory) Delete(_ context.Context, id domain.SessionID) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	return out, nil
}

var _ domain.Store = (*Memory)(nil)
