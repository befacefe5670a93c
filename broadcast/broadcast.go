// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/machiserver/logger"
	"github.com/wfunc/machiserver/room"
	"github.com/wfunc/machiserver/session"
)

var ErrRoomNotFound = errors.New("room not found")

// Evictor removes a session whose connection is no longer deliverable. The
// server wires its leave path in here so a broken connection discovered
// during fan-out is handled exactly like a disconnect.
type Evictor interface {
	Evict(sessionID string)
}

// RoomBroadcaster fans a payload out to a room's bound connections.
type RoomBroadcaster struct {
	rooms    *room.Manager
	sessions *session.Manager
	evictor  Evictor
}

func NewRoomBroadcaster(rooms *room.Manager, sessions *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		rooms:    rooms,
		sessions: sessions,
	}
}

// SetEvictor wires the delivery-failure handler. Called once at startup.
func (b *RoomBroadcaster) SetEvictor(e Evictor) {
	b.evictor = e
}

// BroadcastToRoom delivers payload to every seat except excludeSessionID.
// A failed delivery never aborts the remaining recipients; the failing
// session is evicted asynchronously, which prunes its seat via the leave
// path. Eviction must not run inline because broadcasts happen inside the
// room's critical section.
func (b *RoomBroadcaster) BroadcastToRoom(roomID string, payload any, excludeSessionID string) error {
	rm, exists := b.rooms.Get(roomID)
	if !exists {
		return ErrRoomNotFound
	}

	for _, seat := range rm.Seats() {
		sess := seat.Session
		if sess.GetID() == excludeSessionID {
			continue
		}
		if err := sess.Send(payload); err != nil {
			logger.Log.Warnf("Delivery to session %s in room %s failed: %v", sess.GetID(), roomID, err)
			if b.evictor != nil {
				go b.evictor.Evict(sess.GetID())
			}
		}
	}

	return nil
}
