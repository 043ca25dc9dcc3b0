package handlers

import (
	"net/http"

	"esports-platform/internal/services"

	"github.com/pocketbase/pocketbase/core"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GetDashboard - GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(e *core.RequestEvent) error {
	dashboard, err := h.dashboard.Organizer(e.Request.Context(), identity(e))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, dashboard)
}
