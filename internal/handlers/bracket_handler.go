package handlers

import (
	"net/http"

	"esports-platform/internal/services"
	"esports-platform/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type BracketHandler struct {
	brackets *services.BracketService
}

func NewBracketHandler(brackets *services.BracketService) *BracketHandler {
	return &BracketHandler{brackets: brackets}
}

// GenerateBracket - POST /api/v1/events/{id}/matches
func (h *BracketHandler) GenerateBracket(e *core.RequestEvent) error {
	bracket, err := h.brackets.GenerateForEvent(e.Request.Context(), identity(e), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, map[string]any{
		"message": "Bracket generated successfully",
		"bracket": bracket,
	})
}

// ListMatches - GET /api/v1/events/{id}/matches
func (h *BracketHandler) ListMatches(e *core.RequestEvent) error {
	matches, err := h.brackets.Matches(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"matches": matches})
}

// GetBracket - GET /api/v1/events/{id}/bracket
func (h *BracketHandler) GetBracket(e *core.RequestEvent) error {
	bracket, err := h.brackets.Bracket(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, bracket)
}

// StartMatch - POST /api/v1/events/{id}/matches/{matchId}/start
func (h *BracketHandler) StartMatch(e *core.RequestEvent) error {
	match, err := h.brackets.StartMatch(e.Request.Context(), identity(e),
		e.Request.PathValue("id"), e.Request.PathValue("matchId"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"match": match})
}

// ReportResult - POST /api/v1/events/{id}/matches/{matchId}/result
func (h *BracketHandler) ReportResult(e *core.RequestEvent) error {
	var result models.MatchResult
	if err := e.BindBody(&result); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	match, err := h.brackets.ReportResult(e.Request.Context(), identity(e),
		e.Request.PathValue("id"), e.Request.PathValue("matchId"), result)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"message": "Match result recorded",
		"match":   match,
	})
}
