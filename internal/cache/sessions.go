package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
)

// MemorySessions stores import sessions in process when Redis is not configured.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string][]byte
	expiry   map[string]time.Time
	now      func() time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		sessions: make(map[string][]byte),
		expiry:   make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *MemorySessions) GetSession(_ context.Context, id string) (*domain.ImportSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.sessions[id]
	if ok && !m.expiry[id].IsZero() && !m.now().Before(m.expiry[id]) {
		delete(m.sessions, id)
		delete(m.expiry, id)
		ok = false
	}
	if !ok {
		return nil, domain.NotFoundError{Resource: "import session", ID: id}
	}

	var session domain.ImportSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *MemorySessions) SaveSession(_ context.Context, session *domain.ImportSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = data
	m.expiry[session.ID] = session.ExpiresAt
	return nil
}

func (m *MemorySessions) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.expiry, id)
	return nil
}
