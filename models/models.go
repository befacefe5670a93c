// models/models.go
package models

import (
	"time"
)

// GameRecord is the archived result of one finished game. Records are
// write-only telemetry; live room state never round-trips through them.
type GameRecord struct {
	RoomID     string         `json:"room_id"`
	Winner     int            `json:"winner"`
	WinnerName string         `json:"winner_name"`
	Players    []PlayerResult `json:"players"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PlayerResult is one player's line in a game record.
type PlayerResult struct {
	Slot      int    `json:"slot"`
	Name      string `json:"name"`
	Coins     int    `json:"coins"`
	Landmarks int    `json:"landmarks"`
	Outcome   string `json:"outcome"` // win/lose
}
