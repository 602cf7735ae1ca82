package database

import (
	"log"

	"github.com/tickethub/ticketing-platform/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Event{}, &models.Booking{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Speeds up the per-user aggregate that backs the ticket cap check
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_event_user
		ON bookings (event_id, user_id)
	`)

	return db
}
