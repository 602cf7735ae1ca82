package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tickethub/ticketing-platform/internal/models"
	"github.com/tickethub/ticketing-platform/internal/repository"
	"github.com/tickethub/ticketing-platform/pkg/rabbitmq"
	"gorm.io/gorm"
)

const (
	maxEventNameLength = 255
	maxTotalTickets    = 100_000
)

type EventService interface {
	CreateEvent(ctx context.Context, name string, totalTickets int) (*models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
}

type eventService struct {
	repo      repository.EventRepository
	publisher *rabbitmq.Publisher
}

func NewEventService(repo repository.EventRepository, publisher *rabbitmq.Publisher) EventService {
	return &eventService{repo: repo, publisher: publisher}
}

func (s *eventService) CreateEvent(ctx context.Context, name string, totalTickets int) (*models.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(name) > maxEventNameLength {
		return nil, fmt.Errorf("%w: name cannot exceed %d characters", ErrInvalidInput, maxEventNameLength)
	}
	if totalTickets <= 0 {
		return nil, fmt.Errorf("%w: total_tickets must be greater than 0", ErrInvalidInput)
	}
	if totalTickets > maxTotalTickets {
		return nil, fmt.Errorf("%w: total_tickets cannot exceed %d", ErrInvalidInput, maxTotalTickets)
	}

	event := &models.Event{
		Name:             name,
		TotalTickets:     totalTickets,
		AvailableTickets: totalTickets,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.RoutingKeyEventCreated, event)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.repo.FindAll(ctx)
}
