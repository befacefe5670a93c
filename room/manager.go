// room/manager.go
package room

import (
	"sync"
	"time"

	"github.com/wfunc/machiserver/logger"
	"github.com/wfunc/machiserver/timer"
)

// Summary is the read-only room listing shape for probe and ops callers. It
// deliberately carries no connection handles and no player names.
type Summary struct {
	ID         string    `json:"id"`
	Players    int       `json:"players"`
	MaxPlayers int       `json:"maxPlayers"`
	Turn       int       `json:"turn"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Manager owns every Room instance. Rooms are created on first join and
// deleted after a grace delay once empty; a rejoin inside the delay finds the
// room intact because the timer re-checks occupancy when it fires.
type Manager struct {
	mutex   sync.Mutex
	rooms   map[string]*Room
	pending map[string]int64 // room id -> cleanup timer id

	timers *timer.Manager
	grace  time.Duration
}

func NewManager(grace time.Duration, timers *timer.Manager) *Manager {
	return &Manager{
		rooms:   make(map[string]*Room),
		pending: make(map[string]int64),
		timers:  timers,
		grace:   grace,
	}
}

// GetOrCreate returns the room, creating it with starting state when unseen.
func (m *Manager) GetOrCreate(id string, broadcaster Broadcaster) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[id]; exists {
		return room
	}

	room := NewRoom(id, broadcaster)
	m.rooms[id] = room
	logger.Log.Infof("Created room %s", id)
	return room
}

func (m *Manager) Get(id string) (*Room, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, exists := m.rooms[id]
	return room, exists
}

// Remove deletes the room if it exists and is empty; otherwise it is a
// no-op. The occupancy check and the map delete happen atomically with
// respect to joins: a room that cannot be marked closed stays.
func (m *Manager) Remove(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, exists := m.rooms[id]
	if !exists {
		return
	}
	if !room.markClosed() {
		return
	}

	delete(m.rooms, id)
	if timerID, ok := m.pending[id]; ok {
		m.timers.Remove(timerID)
		delete(m.pending, id)
	}
	logger.Log.Infof("Deleted room %s", id)
}

// ScheduleCleanup arms the grace-delay deletion for a room that just became
// empty, replacing any earlier timer. The deletion itself re-validates
// occupancy, so a join during the window wins.
func (m *Manager) ScheduleCleanup(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.rooms[id]; !exists {
		return
	}
	if timerID, ok := m.pending[id]; ok {
		m.timers.Remove(timerID)
	}
	m.pending[id] = m.timers.Add(m.grace, 0, func() {
		m.Remove(id)
	})
}

// CancelCleanup disarms a pending deletion after a successful rejoin.
func (m *Manager) CancelCleanup(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if timerID, ok := m.pending[id]; ok {
		m.timers.Remove(timerID)
		delete(m.pending, id)
	}
}

func (m *Manager) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.rooms)
}

// ListSummaries returns a snapshot of every room for the probe surface.
func (m *Manager) ListSummaries() []Summary {
	m.mutex.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mutex.Unlock()

	summaries := make([]Summary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, Summary{
			ID:         room.ID,
			Players:    room.Occupancy(),
			MaxPlayers: MaxPlayers,
			Turn:       room.Turn(),
			Status:     room.Phase().String(),
			CreatedAt:  room.CreatedAt,
		})
	}
	return summaries
}
