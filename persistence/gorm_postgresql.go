// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/machiserver/models"
)

// GormPostgreSQL is the GORM-backed Database implementation.
type GormPostgreSQL struct {
	db *gorm.DB
}

// GameRecordModel is the GORM mapping for archived games.
type GameRecordModel struct {
	ID         uint                  `gorm:"primaryKey"`
	RoomID     string                `gorm:"index;not null"`
	Winner     int                   `gorm:"not null"`
	WinnerName string                `gorm:"not null"`
	Players    []models.PlayerResult `gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time
}

func (GameRecordModel) TableName() string {
	return "game_records"
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&GameRecordModel{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	row := GameRecordModel{
		RoomID:     record.RoomID,
		Winner:     record.Winner,
		WinnerName: record.WinnerName,
		Players:    record.Players,
		CreatedAt:  record.CreatedAt,
	}
	return p.db.Create(&row).Error
}

func (p *GormPostgreSQL) RecentRecords(limit int) ([]models.GameRecord, error) {
	var rows []GameRecordModel
	if err := p.db.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.GameRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.GameRecord{
			RoomID:     row.RoomID,
			Winner:     row.Winner,
			WinnerName: row.WinnerName,
			Players:    row.Players,
			CreatedAt:  row.CreatedAt,
		})
	}
	return records, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
