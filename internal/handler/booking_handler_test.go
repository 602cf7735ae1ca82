package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/tickethub/ticketing-platform/internal/dto"
	"github.com/tickethub/ticketing-platform/internal/models"
	"github.com/tickethub/ticketing-platform/internal/service"
)

const (
	testEventID   = "6f1c0a4e-9a55-4b11-8a63-4df6c99e3b01"
	testBookingID = "0b7d2c33-5a1f-4b02-9f9c-b8f6f73f8d42"
)

// --- Mock BookingService ---

type mockBookingService struct {
	bookFn   func(ctx context.Context, eventID, userID string, ticketCount int) (*models.Booking, error)
	cancelFn func(ctx context.Context, bookingID string) (*models.Booking, error)
	getFn    func(ctx context.Context, id string) (*models.Booking, error)
	listFn   func(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error)
}

func (m *mockBookingService) BookTickets(ctx context.Context, eventID, userID string, ticketCount int) (*models.Booking, error) {
	return m.bookFn(ctx, eventID, userID, ticketCount)
}
func (m *mockBookingService) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return m.cancelFn(ctx, bookingID)
}
func (m *mockBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return m.getFn(ctx, id)
}
func (m *mockBookingService) ListBookings(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error) {
	return m.listFn(ctx, eventID, status)
}

func newBookingContext(method, body, paramValue string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(paramValue)
	return c, rec
}

// --- Tests ---

func TestBookTickets_Handler_Success(t *testing.T) {
	svc := &mockBookingService{
		bookFn: func(ctx context.Context, eventID, userID string, ticketCount int) (*models.Booking, error) {
			return &models.Booking{
				ID:          testBookingID,
				EventID:     eventID,
				UserID:      userID,
				TicketCount: ticketCount,
				Status:      models.StatusActive,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}, nil
		},
	}

	c, rec := newBookingContext(http.MethodPost, `{"user_id":"alice","ticket_count":2}`, testEventID)
	h := NewBookingHandler(svc)

	assert.NoError(t, h.BookTickets(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.BookingResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, testBookingID, resp.ID)
	assert.Equal(t, testEventID, resp.EventID)
	assert.Equal(t, "alice", resp.UserID)
	assert.Equal(t, 2, resp.TicketCount)
	assert.Equal(t, models.StatusActive, resp.Status)
}

func TestBookTickets_Handler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		svcErr   error
		wantCode int
	}{
		{"event not found", service.ErrEventNotFound, http.StatusNotFound},
		{"insufficient tickets", fmt.Errorf("%w: available 1, requested 2", service.ErrInsufficientTickets), http.StatusConflict},
		{"user limit exceeded", fmt.Errorf("%w: user already holds 2 of 2 allowed", service.ErrUserLimitExceeded), http.StatusConflict},
		{"invalid input", fmt.Errorf("%w: user_id is required", service.ErrInvalidInput), http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockBookingService{
				bookFn: func(ctx context.Context, eventID, userID string, ticketCount int) (*models.Booking, error) {
					return nil, tc.svcErr
				},
			}

			c, _ := newBookingContext(http.MethodPost, `{"user_id":"alice","ticket_count":1}`, testEventID)
			err := NewBookingHandler(svc).BookTickets(c)

			he, ok := err.(*echo.HTTPError)
			assert.True(t, ok, "expected *echo.HTTPError, got %v", err)
			assert.Equal(t, tc.wantCode, he.Code)
		})
	}
}

func TestBookTickets_Handler_BadBody(t *testing.T) {
	c, _ := newBookingContext(http.MethodPost, `{not json`, testEventID)
	err := NewBookingHandler(&mockBookingService{}).BookTickets(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCancelBooking_Handler_Success(t *testing.T) {
	svc := &mockBookingService{
		cancelFn: func(ctx context.Context, bookingID string) (*models.Booking, error) {
			return &models.Booking{
				ID:          bookingID,
				EventID:     testEventID,
				UserID:      "alice",
				TicketCount: 2,
				Status:      models.StatusCancelled,
				UpdatedAt:   time.Now(),
			}, nil
		},
	}

	c, rec := newBookingContext(http.MethodDelete, "", testBookingID)
	assert.NoError(t, NewBookingHandler(svc).CancelBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.BookingResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusCancelled, resp.Status)
}

func TestCancelBooking_Handler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		svcErr   error
		wantCode int
	}{
		{"booking not found", service.ErrBookingNotFound, http.StatusNotFound},
		{"already cancelled", service.ErrAlreadyCancelled, http.StatusConflict},
		{"ledger inconsistent", fmt.Errorf("%w: booking references missing event", service.ErrLedgerInconsistent), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockBookingService{
				cancelFn: func(ctx context.Context, bookingID string) (*models.Booking, error) {
					return nil, tc.svcErr
				},
			}

			c, _ := newBookingContext(http.MethodDelete, "", testBookingID)
			err := NewBookingHandler(svc).CancelBooking(c)

			he, ok := err.(*echo.HTTPError)
			assert.True(t, ok)
			assert.Equal(t, tc.wantCode, he.Code)
		})
	}
}

func TestGetBooking_Handler_NotFound(t *testing.T) {
	svc := &mockBookingService{
		getFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return nil, service.ErrBookingNotFound
		},
	}

	c, _ := newBookingContext(http.MethodGet, "", testBookingID)
	err := NewBookingHandler(svc).GetBooking(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestListBookings_Handler_FiltersByStatus(t *testing.T) {
	var gotStatus *models.BookingStatus
	svc := &mockBookingService{
		listFn: func(ctx context.Context, eventID string, status *models.BookingStatus) ([]models.Booking, error) {
			gotStatus = status
			return []models.Booking{
				{ID: testBookingID, EventID: eventID, UserID: "alice", TicketCount: 2, Status: models.StatusActive},
			}, nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?status=active", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(testEventID)

	assert.NoError(t, NewBookingHandler(svc).ListBookings(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, gotStatus) {
		assert.Equal(t, models.StatusActive, *gotStatus)
	}

	var resp []dto.BookingResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}
