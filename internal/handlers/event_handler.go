package handlers

import (
	"net/http"

	"esports-platform/internal/services"
	"esports-platform/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// ListEvents - GET /api/v1/events
func (h *EventHandler) ListEvents(e *core.RequestEvent) error {
	events, err := h.events.ListPublic(e.Request.Context())
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"events": events})
}

// GetEvent - GET /api/v1/events/{id}
func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	event, err := h.events.GetVisible(e.Request.Context(), identity(e), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"event": event})
}

// CreateEvent - POST /api/v1/events
func (h *EventHandler) CreateEvent(e *core.RequestEvent) error {
	var input models.EventInput
	if err := e.BindBody(&input); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	event, err := h.events.Create(e.Request.Context(), identity(e), input)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, map[string]any{
		"message": "Event created successfully",
		"event":   event,
	})
}

// UpdateEvent - PATCH /api/v1/events/{id}
func (h *EventHandler) UpdateEvent(e *core.RequestEvent) error {
	var patch models.EventPatch
	if err := e.BindBody(&patch); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	event, err := h.events.Update(e.Request.Context(), identity(e), e.Request.PathValue("id"), patch)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"message": "Event updated successfully",
		"event":   event,
	})
}

// DeleteEvent - DELETE /api/v1/events/{id}
func (h *EventHandler) DeleteEvent(e *core.RequestEvent) error {
	if err := h.events.Delete(e.Request.Context(), identity(e), e.Request.PathValue("id")); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Event deleted successfully"})
}

// JoinEvent - POST /api/v1/events/{id}/join
func (h *EventHandler) JoinEvent(e *core.RequestEvent) error {
	caller := identity(e)
	if caller.UserID == "" {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticket, err := h.events.RegisterParticipant(e.Request.Context(), e.Request.PathValue("id"), caller.UserID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, map[string]any{
		"message": "Successfully registered for event",
		"ticket":  ticket,
	})
}

// GetParticipants - GET /api/v1/events/{id}/participants
func (h *EventHandler) GetParticipants(e *core.RequestEvent) error {
	participants, err := h.events.Participants(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"participants": participants})
}
