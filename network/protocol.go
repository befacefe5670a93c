package network

import "time"

// Inbound action names.
const (
	ActionJoin     = "join"
	ActionLeave    = "leave"
	ActionRoll     = "roll"
	ActionBuy      = "buy"
	ActionBuild    = "build"
	ActionReset    = "reset"
	ActionStart    = "start"
	ActionGetRooms = "getRooms"
	ActionPing     = "ping"
)

// Outbound message types.
const (
	MsgJoined       = "joined"
	MsgPlayerJoined = "playerJoined"
	MsgCanStart     = "canStart"
	MsgGameStarted  = "gameStarted"
	MsgGameState    = "gameState"
	MsgGameOver     = "gameOver"
	MsgPlayerLeft   = "playerLeft"
	MsgLeft         = "left"
	MsgRoomsList    = "roomsList"
	MsgError        = "error"
	MsgPong         = "pong"
)

// Action is one inbound client message.
type Action struct {
	Action     string `json:"action"`
	Room       string `json:"room"`
	Player     int    `json:"player"`
	Dice       []int  `json:"dice,omitempty"`
	CardID     string `json:"cardId,omitempty"`
	LandmarkID string `json:"landmarkId,omitempty"`
	Name       string `json:"name,omitempty"`
}

type JoinedMessage struct {
	Type   string `json:"type"`
	Player int    `json:"player"`
	Room   string `json:"room"`
	State  any    `json:"state"`
}

type PlayerJoinedMessage struct {
	Type   string `json:"type"`
	Player int    `json:"player"`
	Name   string `json:"name"`
	State  any    `json:"state"`
}

type CanStartMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type GameStartedMessage struct {
	Type    string `json:"type"`
	State   any    `json:"state"`
	Message string `json:"message"`
}

type GameStateMessage struct {
	Type       string `json:"type"`
	State      any    `json:"state"`
	LastRoll   []int  `json:"lastRoll,omitempty"`
	NextPlayer int    `json:"nextPlayer,omitempty"`
	Message    string `json:"message,omitempty"`
}

type GameOverMessage struct {
	Type       string `json:"type"`
	Winner     int    `json:"winner"`
	WinnerName string `json:"winnerName"`
	State      any    `json:"state"`
}

type PlayerLeftMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	State   any    `json:"state"`
}

type LeftMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type RoomsListMessage struct {
	Type  string `json:"type"`
	Rooms any    `json:"rooms"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type PongMessage struct {
	Type string `json:"type"`
	Time int64  `json:"time"`
}

func NewError(message string) ErrorMessage {
	return ErrorMessage{Type: MsgError, Message: message}
}

func NewPong() PongMessage {
	return PongMessage{Type: MsgPong, Time: time.Now().UnixMilli()}
}
