package dto

import (
	"time"

	"github.com/tickethub/ticketing-platform/internal/models"
)

type EventResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	TotalTickets     int       `json:"total_tickets"`
	AvailableTickets int       `json:"available_tickets"`
	CreatedAt        time.Time `json:"created_at"`
}

type BookingResponse struct {
	ID          string               `json:"id"`
	EventID     string               `json:"event_id"`
	UserID      string               `json:"user_id"`
	TicketCount int                  `json:"ticket_count"`
	Status      models.BookingStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToEventResponse(e *models.Event) EventResponse {
	return EventResponse{
		ID:               e.ID,
		Name:             e.Name,
		TotalTickets:     e.TotalTickets,
		AvailableTickets: e.AvailableTickets,
		CreatedAt:        e.CreatedAt,
	}
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		EventID:     b.EventID,
		UserID:      b.UserID,
		TicketCount: b.TicketCount,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
