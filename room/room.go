// room/room.go
package room

import (
	"errors"
	"sync"
	"time"

	"github.com/wfunc/machiserver/game"
	"github.com/wfunc/machiserver/logger"
	"github.com/wfunc/machiserver/network"
	"github.com/wfunc/machiserver/session"
)

// MaxPlayers is the fixed seat capacity of every room.
const MaxPlayers = 2

var (
	ErrRoomFull = errors.New("room is full")
	// ErrRoomClosed signals a lost race against the deletion timer; callers
	// should fetch-or-create the room again.
	ErrRoomClosed = errors.New("room is closed")
)

// Phase is the room's position in the turn state machine.
type Phase int

const (
	PhaseWaiting Phase = iota // turn == 0, waiting for an explicit start
	PhaseActive
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseActive:
		return "active"
	case PhaseGameOver:
		return "gameOver"
	default:
		return "unknown"
	}
}

// Seat binds one session to a player slot. The room references the session,
// it never owns the underlying connection.
type Seat struct {
	Session *session.Session
	Slot    int
}

// PublicState is the room state shape sent to clients. Connection handles are
// never serialized.
type PublicState struct {
	P1          *game.PlayerState `json:"p1"`
	P2          *game.PlayerState `json:"p2"`
	Turn        int               `json:"turn"`
	LastRoll    [2]int            `json:"lastRoll"`
	PlayerCount int               `json:"playerCount"`
}

// Room is one two-player game session. All game-state mutations and the
// broadcasts they produce happen under mu, so every observer sees state
// messages in mutation order. Seats live under their own lock so the
// broadcaster can walk them without touching game state.
type Room struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	p1       *game.PlayerState
	p2       *game.PlayerState
	turn     int
	lastRoll [2]int
	phase    Phase

	seatMu sync.RWMutex
	seats  []*Seat
	closed bool

	broadcaster Broadcaster
}

func NewRoom(id string, broadcaster Broadcaster) *Room {
	return &Room{
		ID:          id,
		CreatedAt:   time.Now(),
		p1:          game.NewPlayerState(),
		p2:          game.NewPlayerState(),
		turn:        0,
		lastRoll:    [2]int{1, 1},
		phase:       PhaseWaiting,
		broadcaster: broadcaster,
	}
}

// Join seats the session and assigns a slot: 1 for the first occupant, 2 for
// the second. A lone occupant always holds slot 1 (Leave renumbers), so a
// joiner never collides. The name is truncated and stored on the slot's
// player state. The joiner is confirmed with a joined message before the
// rest of the room hears about it.
func (r *Room) Join(sess *session.Session, name string) (int, *PublicState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seatMu.Lock()
	if r.closed {
		r.seatMu.Unlock()
		return 0, nil, ErrRoomClosed
	}
	if len(r.seats) >= MaxPlayers {
		r.seatMu.Unlock()
		return 0, nil, ErrRoomFull
	}
	slot := len(r.seats) + 1
	r.seats = append(r.seats, &Seat{Session: sess, Slot: slot})
	occupancy := len(r.seats)
	r.seatMu.Unlock()

	r.playerFor(slot).SetName(name)

	state := r.snapshotLocked()
	if err := sess.Send(network.JoinedMessage{
		Type:   network.MsgJoined,
		Player: slot,
		Room:   r.ID,
		State:  state,
	}); err != nil {
		logger.Log.Warnf("Failed to confirm join for session %s: %v", sess.GetID(), err)
	}

	r.broadcast(network.PlayerJoinedMessage{
		Type:   network.MsgPlayerJoined,
		Player: slot,
		Name:   r.playerFor(slot).Name,
		State:  state,
	}, sess.GetID())

	if occupancy == MaxPlayers {
		r.broadcast(network.CanStartMessage{
			Type:    network.MsgCanStart,
			Message: "both players are in, the game can start",
		}, "")
	}

	return slot, state, nil
}

// Start arms the game: both player states reset to the starting
// configuration and slot 1 takes the first turn. Valid only with two
// occupants.
func (r *Room) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Occupancy() != MaxPlayers {
		return false
	}

	r.p1.Reset()
	r.p2.Reset()
	r.turn = 1
	r.lastRoll = [2]int{1, 1}
	r.phase = PhaseActive

	r.broadcast(network.GameStartedMessage{
		Type:    network.MsgGameStarted,
		State:   r.snapshotLocked(),
		Message: "game started",
	}, "")
	return true
}

// Roll resolves a dice roll from the current-turn player: economy effects
// apply to both players, the roll is recorded and the turn flips. Stale or
// out-of-turn rolls are silently ignored.
func (r *Room) Roll(player, d1, d2 int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseActive || player != r.turn {
		return false
	}

	active, opponent := r.playersFor(player)
	game.Resolve(active, opponent, d1, d2)
	r.lastRoll = [2]int{d1, d2}
	r.turn = 3 - player

	r.broadcast(network.GameStateMessage{
		Type:       network.MsgGameState,
		State:      r.snapshotLocked(),
		LastRoll:   []int{d1, d2},
		NextPlayer: r.turn,
	}, "")
	return true
}

// Buy purchases an enterprise card for the current-turn player. Unaffordable
// or out-of-turn purchases are silent no-ops.
func (r *Room) Buy(player int, cardID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseActive || player != r.turn {
		return false
	}

	active := r.playerFor(player)
	if !active.Buy(cardID) {
		return false
	}

	r.broadcast(network.GameStateMessage{
		Type:    network.MsgGameState,
		State:   r.snapshotLocked(),
		Message: active.Name + " bought " + cardID,
	}, "")
	return true
}

// Build constructs a landmark for the current-turn player. Reaching all four
// landmarks ends the game; the returned winner slot is non-zero in that case.
func (r *Room) Build(player int, landmarkID string) (winner int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseActive || player != r.turn {
		return 0, false
	}

	active := r.playerFor(player)
	if !active.Build(landmarkID) {
		return 0, false
	}

	if active.HasWon() {
		r.phase = PhaseGameOver
		r.broadcast(network.GameOverMessage{
			Type:       network.MsgGameOver,
			Winner:     player,
			WinnerName: active.Name,
			State:      r.snapshotLocked(),
		}, "")
		return player, true
	}

	r.broadcast(network.GameStateMessage{
		Type:    network.MsgGameState,
		State:   r.snapshotLocked(),
		Message: active.Name + " built " + landmarkID,
	}, "")
	return 0, true
}

// Reset reinitializes both players' economic state, preserving names, and
// hands the turn back to slot 1. Permitted from any phase.
func (r *Room) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.p1.Reset()
	r.p2.Reset()
	r.turn = 1
	r.lastRoll = [2]int{1, 1}
	r.phase = PhaseActive

	r.broadcast(network.GameStateMessage{
		Type:    network.MsgGameState,
		State:   r.snapshotLocked(),
		Message: "game reset",
	}, "")
}

// Leave removes the session's seat. With one occupant remaining the game
// cannot continue: the survivor is renumbered to slot 1, the room falls back
// to waiting and the survivor is notified. The caller schedules deletion when
// empty is true.
func (r *Room) Leave(sessionID string) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seatMu.Lock()
	idx := -1
	for i, seat := range r.seats {
		if seat.Session.GetID() == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.seatMu.Unlock()
		return false, false
	}
	r.seats = append(r.seats[:idx], r.seats[idx+1:]...)
	var remaining *Seat
	if len(r.seats) == 1 {
		remaining = r.seats[0]
	}
	occupancy := len(r.seats)
	r.seatMu.Unlock()

	if remaining != nil {
		if remaining.Slot == 2 {
			remaining.Slot = 1
			r.p1 = r.p2
			r.p2 = game.NewPlayerState()
			remaining.Session.Bind(r.ID, 1)
		}
		r.turn = 0
		r.phase = PhaseWaiting

		r.broadcast(network.PlayerLeftMessage{
			Type:    network.MsgPlayerLeft,
			Message: "opponent left the room",
			State:   r.snapshotLocked(),
		}, sessionID)
	}

	return true, occupancy == 0
}

// Snapshot returns a copy of the public room state.
func (r *Room) Snapshot() *PublicState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) Occupancy() int {
	r.seatMu.RLock()
	defer r.seatMu.RUnlock()
	return len(r.seats)
}

// Seats returns a copy of the seat list, safe to iterate without a lock.
func (r *Room) Seats() []*Seat {
	r.seatMu.RLock()
	defer r.seatMu.RUnlock()

	seats := make([]*Seat, len(r.seats))
	copy(seats, r.seats)
	return seats
}

func (r *Room) Turn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turn
}

func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// markClosed flags the room as deleted so a racing join retries against the
// store. Returns false if the room is occupied.
func (r *Room) markClosed() bool {
	r.seatMu.Lock()
	defer r.seatMu.Unlock()

	if len(r.seats) > 0 {
		return false
	}
	r.closed = true
	return true
}

func (r *Room) playerFor(slot int) *game.PlayerState {
	if slot == 1 {
		return r.p1
	}
	return r.p2
}

func (r *Room) playersFor(slot int) (active, opponent *game.PlayerState) {
	if slot == 1 {
		return r.p1, r.p2
	}
	return r.p2, r.p1
}

// snapshotLocked clones the state so marshalling can happen outside mu.
func (r *Room) snapshotLocked() *PublicState {
	return &PublicState{
		P1:          r.p1.Clone(),
		P2:          r.p2.Clone(),
		Turn:        r.turn,
		LastRoll:    r.lastRoll,
		PlayerCount: r.Occupancy(),
	}
}

func (r *Room) broadcast(payload any, excludeSessionID string) {
	if r.broadcaster == nil {
		return
	}
	if err := r.broadcaster.BroadcastToRoom(r.ID, payload, excludeSessionID); err != nil {
		logger.Log.Warnf("Broadcast to room %s failed: %v", r.ID, err)
	}
}
