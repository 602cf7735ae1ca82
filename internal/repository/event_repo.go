package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tickethub/ticketing-platform/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindAll(ctx context.Context) ([]models.Event, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error)
	UpdateAvailable(ctx context.Context, tx *gorm.DB, id string, available int) error
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindAll(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindByIDForUpdate acquires a row-level exclusive lock on the event within
// the given transaction. Every write path for an event's ticket pool goes
// through this lock, so concurrent bookings serialize here.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Event, error) {
	var event models.Event
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) UpdateAvailable(ctx context.Context, tx *gorm.DB, id string, available int) error {
	return tx.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Update("available_tickets", available).Error
}
