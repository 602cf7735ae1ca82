package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tickethub/ticketing-platform/internal/dto"
	"github.com/tickethub/ticketing-platform/internal/models"
	"github.com/tickethub/ticketing-platform/internal/service"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	events := e.Group("/api/v1/events")
	events.POST("/:id/bookings", h.BookTickets)
	events.GET("/:id/bookings", h.ListBookings)

	e.GET("/api/v1/bookings/:id", h.GetBooking)
	e.DELETE("/api/v1/bookings/:id", h.CancelBooking)
}

func (h *BookingHandler) BookTickets(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.svc.BookTickets(c.Request().Context(), c.Param("id"), req.UserID, req.TicketCount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInsufficientTickets):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrUserLimitExceeded):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	booking, err := h.svc.CancelBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyCancelled):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			// Includes ErrLedgerInconsistent: a server fault, not a client error.
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	booking, err := h.svc.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	var status *models.BookingStatus
	if s := c.QueryParam("status"); s != "" {
		bs := models.BookingStatus(s)
		status = &bs
	}

	bookings, err := h.svc.ListBookings(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}

	return c.JSON(http.StatusOK, resp)
}
