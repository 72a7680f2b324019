package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pr-poehali-dev/digital-goods-marketplace/internal/domain"
)

// Session is the state of one browsing context: an id that also keys
// the persisted cart, and the cached copy of the authenticated user.
// Logging out clears the user but leaves the cart snapshot alone.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu    sync.RWMutex
	user  *domain.User
	token string
}

// User returns a copy of the cached user, or false for an anonymous
// (or absent) session.
func (s *Session) User() (domain.User, bool) {
	if s == nil {
		return domain.User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetUser caches the session payload returned by the auth endpoint.
func (s *Session) SetUser(user domain.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.user = &u
	s.token = token
}

// Clear forgets the cached user. The cart is intentionally untouched.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
}

// sessionTTL matches the session cookie lifetime.
const sessionTTL = 48 * time.Hour

// Manager tracks live sessions by id. Entries older than the ttl are
// dropped on lookup and by EvictExpired.
type Manager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{
		ttl:      sessionTTL,
		sessions: map[string]*Session{},
	}
}

func (m *Manager) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Since(s.CreatedAt) > m.ttl {
		delete(m.sessions, id)
		return nil, false
	}
	return s, true
}

// GetOrCreate returns the live session for id, adopting a well-formed
// id minted by an earlier process so the cart persisted under it stays
// reachable after a restart. A malformed id gets a fresh session.
func (m *Manager) GetOrCreate(id string) *Session {
	if s, ok := m.Get(id); ok {
		return s
	}
	if _, err := uuid.Parse(id); err != nil {
		return m.Create()
	}
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s
}

// EvictExpired sweeps sessions older than the ttl and reports how many
// were removed.
func (m *Manager) EvictExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for id, s := range m.sessions {
		if time.Since(s.CreatedAt) > m.ttl {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
