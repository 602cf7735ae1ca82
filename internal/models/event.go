package models

import "time"

type Event struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"not null" json:"name"`
	TotalTickets     int       `gorm:"not null" json:"total_tickets"`
	AvailableTickets int       `gorm:"not null" json:"available_tickets"`
	CreatedAt        time.Time `json:"created_at"`
}
