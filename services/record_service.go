// services/record_service.go
package services

import (
	"time"

	"github.com/wfunc/machiserver/logger"
	"github.com/wfunc/machiserver/models"
	"github.com/wfunc/machiserver/persistence"
	"github.com/wfunc/machiserver/room"
)

// RecordService archives finished games. With no database configured it
// degrades to a no-op so the server runs fully in-memory.
type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// Archive writes a game record for a room that just reached game over.
// Failures are logged, never surfaced: archiving must not disturb play.
func (s *RecordService) Archive(roomID string, winner int, state *room.PublicState) {
	if s.db == nil {
		return
	}

	record := &models.GameRecord{
		RoomID: roomID,
		Winner: winner,
		Players: []models.PlayerResult{
			playerResult(1, winner, state),
			playerResult(2, winner, state),
		},
		CreatedAt: time.Now(),
	}
	if winner == 1 {
		record.WinnerName = state.P1.Name
	} else {
		record.WinnerName = state.P2.Name
	}

	if err := s.db.SaveGameRecord(record); err != nil {
		logger.Log.Errorf("Failed to archive game record for room %s: %v", roomID, err)
	}
}

// Recent returns the latest archived games, newest first.
func (s *RecordService) Recent(limit int) ([]models.GameRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	return s.db.RecentRecords(limit)
}

func playerResult(slot, winner int, state *room.PublicState) models.PlayerResult {
	player := state.P1
	if slot == 2 {
		player = state.P2
	}

	outcome := "lose"
	if slot == winner {
		outcome = "win"
	}

	return models.PlayerResult{
		Slot:      slot,
		Name:      player.Name,
		Coins:     player.Coins,
		Landmarks: len(player.Landmarks),
		Outcome:   outcome,
	}
}
