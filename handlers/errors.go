package handlers

import (
	"errors"
	"net/http"

	"rivo_booking_go/services"

	"github.com/labstack/echo/v4"
)

// serviceError maps engine errors to HTTP responses. Infrastructure failures
// stay opaque to the caller.
func serviceError(c echo.Context, err error) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"code":    validationErr.Code,
			"message": validationErr.Message,
		})
	}

	var conflictErr *services.ConflictError
	if errors.As(err, &conflictErr) {
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"error":           "version conflict",
			"current_version": conflictErr.CurrentVersion,
		})
	}

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrSlotUnavailable), errors.Is(err, services.ErrNoCapacity):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrReservationInvalid), errors.Is(err, services.ErrAlreadyCanceled):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
