package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tickethub/ticketing-platform/internal/dto"
	"github.com/tickethub/ticketing-platform/internal/service"
)

type EventHandler struct {
	svc service.EventService
}

func NewEventHandler(svc service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) RegisterRoutes(e *echo.Echo) {
	events := e.Group("/api/v1/events")
	events.POST("", h.CreateEvent)
	events.GET("", h.ListEvents)
	events.GET("/:id", h.GetEvent)
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	event, err := h.svc.CreateEvent(c.Request().Context(), req.Name, req.TotalTickets)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, dto.ToEventResponse(event))
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	event, err := h.svc.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.svc.ListEvents(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.EventResponse, len(events))
	for i, e := range events {
		resp[i] = dto.ToEventResponse(&e)
	}

	return c.JSON(http.StatusOK, resp)
}
