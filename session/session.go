// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/machiserver/network"
)

// Binding ties a connection to a seat in a room. A session holds at most one.
type Binding struct {
	RoomID string
	Slot   int
}

type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	LastActive time.Time

	mutex   sync.RWMutex
	binding *Binding
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

// Bind records the room binding, implicitly replacing any previous one. The
// previous binding is returned so callers can run the leave path for it.
func (s *Session) Bind(roomID string, slot int) (prev Binding, hadPrev bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.binding != nil {
		prev, hadPrev = *s.binding, true
	}
	s.binding = &Binding{RoomID: roomID, Slot: slot}
	return prev, hadPrev
}

// Unbind clears the binding and returns what was bound, if anything.
func (s *Session) Unbind() (Binding, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.binding == nil {
		return Binding{}, false
	}
	b := *s.binding
	s.binding = nil
	return b, true
}

// Binding returns the current binding without clearing it.
func (s *Session) Binding() (Binding, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.binding == nil {
		return Binding{}, false
	}
	return *s.binding, true
}

func (s *Session) Send(v any) error {
	s.LastActive = time.Now()
	return s.Conn.SendJSON(v)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager tracks every live session in the process.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

// Remove drops the session and reports whether it was present, so callers
// racing on disconnect clean up exactly once.
func (m *Manager) Remove(sessionID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return false
	}
	delete(m.sessions, sessionID)
	return true
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
