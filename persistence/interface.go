// persistence/interface.go
package persistence

import (
	"errors"

	"github.com/wfunc/machiserver/models"
)

// Database archives finished games. Implementations must be safe for
// concurrent use; the server writes records from per-room goroutines.
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	RecentRecords(limit int) ([]models.GameRecord, error)
	Close() error
}

var ErrRecordNotFound = errors.New("record not found")
