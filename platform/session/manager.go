package session

import (
	"sync"

	"github.com/ilianxin/RichMan-Web3/platform/board"
)

// Manager holds the live sessions of this process, keyed by game id.
type Manager struct {
	mu       sync.Mutex
	catalog  *board.Catalog
	store    Store
	sessions map[string]*Session
}

func NewManager(catalog *board.Catalog, store Store) *Manager {
	return &Manager{
		catalog:  catalog,
		store:    store,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := New(id, m.catalog, Options{Store: m.store})
	s.restore()
	m.sessions[id] = s
	return s
}

func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
