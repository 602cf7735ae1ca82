package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tickethub/ticketing-platform/internal/models"
	"github.com/tickethub/ticketing-platform/internal/repository"
	"github.com/tickethub/ticketing-platform/pkg/rabbitmq"
	"gorm.io/gorm"
)

// MaxTicketsPerUser is the cap on active tickets a single user may hold for
// one event.
const MaxTicketsPerUser = 2

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrEventNotFound       = errors.New("event not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInsufficientTickets = errors.New("not enough tickets available")
	ErrUserLimitExceeded   = errors.New("user ticket limit exceeded")
	ErrAlreadyCancelled    = errors.New("booking is already cancelled")

	// ErrLedgerInconsistent marks internal invariant violations (a booking
	// pointing at a missing event, an available count above total). These are
	// server faults, never client errors.
	ErrLedgerInconsistent = errors.New("ticket ledger inconsistent")
)

type BookingService interface {
	BookTickets(ctx context.Context, eventID, userID string, ticketCount int) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	eventRepo   repository.EventRepository
	publisher   *rabbitmq.Publisher
}

func NewBookingService(bookingRepo repository.BookingRepository, eventRepo repository.EventRepository, publisher *rabbitmq.Publisher) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		eventRepo:   eventRepo,
		publisher:   publisher,
	}
}

// BookTickets reserves ticketCount tickets on an event for a user.
//
// The whole read-check-write sequence runs in one transaction holding an
// exclusive row lock on the event (SELECT ... FOR UPDATE). Two concurrent
// bookings for the same event serialize on that lock, so the availability
// check and the per-user sum always see the latest committed state and the
// pool can never go negative. The per-user aggregate is safe for the same
// reason: no booking row is ever inserted without the event lock held.
func (s *bookingService) BookTickets(ctx context.Context, eventID, userID string, ticketCount int) (*models.Booking, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if ticketCount < 1 || ticketCount > MaxTicketsPerUser {
		return nil, fmt.Errorf("%w: ticket_count must be between 1 and %d", ErrInvalidInput, MaxTicketsPerUser)
	}

	var result *models.Booking

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the event row — serializes all writers for this event
		event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		// 2. Availability check against the locked, up-to-date count
		if event.AvailableTickets < ticketCount {
			return fmt.Errorf("%w: available %d, requested %d",
				ErrInsufficientTickets, event.AvailableTickets, ticketCount)
		}

		// 3. Per-user cap across the user's active bookings for this event
		active, err := s.bookingRepo.FindActiveByUserAndEvent(ctx, tx, userID, eventID)
		if err != nil {
			return err
		}
		held := 0
		for _, b := range active {
			held += b.TicketCount
		}
		if held+ticketCount > MaxTicketsPerUser {
			return fmt.Errorf("%w: user already holds %d of %d allowed",
				ErrUserLimitExceeded, held, MaxTicketsPerUser)
		}

		// 4. Insert the booking and decrement the pool atomically
		booking := &models.Booking{
			EventID:     eventID,
			UserID:      userID,
			TicketCount: ticketCount,
			Status:      models.StatusActive,
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return err
		}
		if err := s.eventRepo.UpdateAvailable(ctx, tx, eventID, event.AvailableTickets-ticketCount); err != nil {
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.RoutingKeyBookingCreated, result)
	}
	return result, nil
}

// CancelBooking flips an active booking to cancelled and returns its tickets
// to the event's pool.
//
// Lock order is booking first, then event. Booking creation locks only the
// event and inserts a row no other transaction can see yet, so the opposing
// orders cannot form a cycle; two cancellations on the same event serialize
// on the shared event lock.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	var result *models.Booking

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the booking row
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		// 2. Cancellation is one-way and not idempotent
		if booking.Status == models.StatusCancelled {
			return ErrAlreadyCancelled
		}

		// 3. Lock the event to return tickets atomically
		event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, booking.EventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: booking %s references missing event %s",
					ErrLedgerInconsistent, booking.ID, booking.EventID)
			}
			return err
		}

		// 4. The increment exactly reverses a prior decrement, so the bound
		// holds structurally; a violation means the ledger is corrupt.
		restored := event.AvailableTickets + booking.TicketCount
		if restored > event.TotalTickets {
			return fmt.Errorf("%w: releasing %d tickets would push available to %d of total %d",
				ErrLedgerInconsistent, booking.TicketCount, restored, event.TotalTickets)
		}
		if err := s.eventRepo.UpdateAvailable(ctx, tx, event.ID, restored); err != nil {
			return err
		}

		// 5. Flip the status
		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, models.StatusCancelled); err != nil {
			return err
		}

		booking.Status = models.StatusCancelled
		booking.UpdatedAt = time.Now().UTC()
		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.RoutingKeyBookingCancelled, result)
	}
	return result, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error) {
	if _, err := s.eventRepo.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return s.bookingRepo.FindByEventID(ctx, eventID, status)
}
