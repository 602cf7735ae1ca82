package models

import "time"

type BookingStatus string

const (
	StatusActive    BookingStatus = "active"
	StatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID          string        `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     string        `gorm:"type:uuid;not null;index" json:"event_id"`
	UserID      string        `gorm:"not null" json:"user_id"`
	TicketCount int           `gorm:"not null" json:"ticket_count"`
	Status      BookingStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
}
