package dialogue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hackgods/conversational-booking/internal/form"
)

// MemoryStore keeps sessions in process. Get returns a private copy, so
// changes are only visible to others after Save.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionRecord
	newForm  FormFactory
	now      func() time.Time
}

func NewMemoryStore(newForm FormFactory) *MemoryStore {
	if newForm == nil {
		newForm = func() *form.Form { return form.New() }
	}
	return &MemoryStore{
		sessions: make(map[string]sessionRecord),
		newForm:  newForm,
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context) (*Session, error) {
	now := m.now().UTC()
	s := &Session{ID: uuid.NewString(), Form: m.newForm(), CreatedAt: now, UpdatedAt: now}

	m.mu.Lock()
	m.sessions[s.ID] = toRecord(s)
	m.mu.Unlock()
	return s, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	rec, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return fromRecord(rec, m.newForm)
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrSessionNotFound
	}
	m.sessions[s.ID] = toRecord(s)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}
