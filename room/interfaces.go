package room

// Broadcaster delivers a payload to every bound connection in a room, except
// an optionally excluded session. Defined here to break the import cycle
// between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, payload any, excludeSessionID string) error
}
