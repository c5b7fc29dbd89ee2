package handlers

import (
	"errors"
	"log"
	"net/http"

	"clubsync/internal/common"
	"clubsync/internal/services"

	"github.com/labstack/echo/v4"
)

// writeServiceError maps service-layer errors onto the status-code contract.
func writeServiceError(c echo.Context, err error) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return common.SendValidationError(c, validationErr.Field, validationErr.Message)
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.JSON(http.StatusNotFound, common.CreateErrorResponse("NOT_FOUND", "Resource not found", nil))
	case errors.Is(err, services.ErrConflict):
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("CONFLICT", "State precondition not met", nil))
	case errors.Is(err, services.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Too many failed attempts", nil))
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, common.CreateErrorResponse("INVALID_CREDENTIALS", "Invalid credentials", nil))
	case errors.Is(err, services.ErrConfiguration):
		log.Printf("ERROR: %v", err)
		return common.SendServerError(c, "Service misconfigured")
	default:
		log.Printf("ERROR: %v", err)
		return common.SendServerError(c, "Internal error")
	}
}
