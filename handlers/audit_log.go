package handlers

import (
	"net/http"
	"strconv"
	"time"

	"rivo_booking_go/db"
	"rivo_booking_go/middleware"
	"rivo_booking_go/models"
	"rivo_booking_go/services"

	"github.com/labstack/echo/v4"
)

// GetAppointmentHistoryHandler returns the full audit trail of one
// appointment, oldest first
func GetAppointmentHistoryHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)

	apt, err := services.GetAppointmentByID(db.DB, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	if apt.TenantID != tenant.ID {
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	}

	logs, err := services.GetAppointmentAuditHistory(db.DB, apt.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch audit history")
	}

	return c.JSON(http.StatusOK, logs)
}

// GetAuditLogsHandler returns the tenant-wide audit trail, paginated and
// newest first
func GetAuditLogsHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)

	filters := services.AuditLogFilters{
		Action:  models.AuditAction(c.QueryParam("action")),
		ActorID: c.QueryParam("actor_id"),
	}

	if fromStr := c.QueryParam("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid from date format (use YYYY-MM-DD)")
		}
		filters.DateFrom = from
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid to date format (use YYYY-MM-DD)")
		}
		filters.DateTo = to.Add(24 * time.Hour) // Include the end date
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	logs, total, err := services.GetTenantAuditLogs(db.DB, tenant.ID, filters, page, pageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch audit logs")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
	})
}
