package handlers

import (
	"net/http"

	"esports-platform/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type TicketHandler struct {
	tickets *services.TicketService
}

func NewTicketHandler(tickets *services.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

// ListTickets - GET /api/v1/tickets?userId=
func (h *TicketHandler) ListTickets(e *core.RequestEvent) error {
	userID := e.Request.URL.Query().Get("userId")

	tickets, err := h.tickets.ListForUser(e.Request.Context(), identity(e), userID)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"tickets": tickets})
}
