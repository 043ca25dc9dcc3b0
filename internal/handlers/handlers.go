// Package handlers exposes the services over the PocketBase router.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"esports-platform/internal/auth"
	"esports-platform/internal/status"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// identity maps the authenticated record onto a service caller. Superusers
// act as admins; regular users carry their role in the "role" field.
func identity(e *core.RequestEvent) auth.Identity {
	if e.Auth == nil {
		return auth.Identity{}
	}
	if e.Auth.IsSuperuser() {
		return auth.Identity{UserID: e.Auth.Id, Role: auth.RoleAdmin}
	}
	return auth.Identity{
		UserID: e.Auth.Id,
		Role:   auth.ParseRole(e.Auth.GetString("role")),
	}
}

// apiError translates a service error into the matching HTTP error.
// Storage and unexpected failures are logged and rendered without detail.
func apiError(err error) error {
	var verr *status.ValidationError
	switch {
	case errors.As(err, &verr):
		data := make(validation.Errors, len(verr.Fields))
		for field, msg := range verr.Fields {
			data[field] = validation.NewError("validation_invalid_value", msg)
		}
		return apis.NewBadRequestError("Validation failed", data)
	case errors.Is(err, status.ErrBadRequest):
		return apis.NewBadRequestError(err.Error(), nil)
	case errors.Is(err, status.ErrUnauthorized):
		return apis.NewUnauthorizedError("Invalid webhook secret", nil)
	case errors.Is(err, status.ErrForbidden):
		return apis.NewForbiddenError("You are not allowed to perform this action", nil)
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("Resource not found", nil)
	case errors.Is(err, status.ErrEventFull):
		return apis.NewApiError(http.StatusConflict, "Event is full", nil)
	case errors.Is(err, status.ErrAlreadyRegistered):
		return apis.NewApiError(http.StatusConflict, "You are already registered for this event", nil)
	case errors.Is(err, status.ErrInvalidState):
		return apis.NewApiError(http.StatusConflict, err.Error(), nil)
	default:
		slog.Error("Request failed", "error", err)
		return apis.NewInternalServerError("Internal server error", nil)
	}
}
