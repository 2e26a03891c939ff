package handlers

import (
	"net/http"

	"rivo_booking_go/db"
	"rivo_booking_go/services"

	"github.com/labstack/echo/v4"
)

// CleanupReservationsHandler deletes expired holds on demand. The sweeper
// binary does the same on a schedule; this endpoint exists for operators and
// smoke tests.
func CleanupReservationsHandler(c echo.Context) error {
	deleted, err := services.CleanupExpiredReservations(db.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to clean up reservations")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"deleted": deleted,
	})
}

// ReservationHealthHandler reports the reservation table health probe
func ReservationHealthHandler(c echo.Context) error {
	health, err := services.GetReservationHealth(db.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute reservation health")
	}

	return c.JSON(http.StatusOK, health)
}
