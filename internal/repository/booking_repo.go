package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/tickethub/ticketing-platform/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Booking, error)
	FindByEventID(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error)
	FindActiveByUserAndEvent(ctx context.Context, tx *gorm.DB, userID, eventID string) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID string, status models.BookingStatus) error
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByIDForUpdate locks the booking row for the duration of the transaction.
// Cancellation locks the booking before its event; booking creation locks only
// the event and inserts a fresh row, so the two lock orders cannot deadlock.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByEventID(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("created_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindActiveByUserAndEvent returns all active bookings a user holds for an
// event. Callers must already hold the event row lock in tx so the aggregate
// cannot race with a concurrent insert for the same user.
func (r *bookingRepository) FindActiveByUserAndEvent(ctx context.Context, tx *gorm.DB, userID, eventID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := tx.WithContext(ctx).
		Where("user_id = ? AND event_id = ? AND status = ?", userID, eventID, models.StatusActive).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID string, status models.BookingStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("status", status).Error
}
