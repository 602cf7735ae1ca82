package dto

type CreateEventRequest struct {
	Name         string `json:"name" validate:"required"`
	TotalTickets int    `json:"total_tickets" validate:"required,gt=0"`
}

type CreateBookingRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	TicketCount int    `json:"ticket_count" validate:"required,gte=1,lte=2"`
}
