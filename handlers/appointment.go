package handlers

import (
	"net/http"
	"time"

	"rivo_booking_go/db"
	"rivo_booking_go/middleware"
	"rivo_booking_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// CreateAppointmentHandler books directly on behalf of an operator. The
// horizon and lead-time limits do not apply; hours and capacity still do.
func CreateAppointmentHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)

	var req struct {
		ServiceID      string  `json:"service_id"`
		SlotStart      string  `json:"slot_start"` // RFC 3339
		IdempotencyKey string  `json:"idempotency_key"`
		CustomerID     *string `json:"customer_id"`
		GuestName      string  `json:"guest_name"`
		GuestEmail     string  `json:"guest_email"`
		GuestPhone     string  `json:"guest_phone"`
		ActorID        *string `json:"actor_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.ServiceID == "" || req.SlotStart == "" || req.IdempotencyKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "service_id, slot_start and idempotency_key are required")
	}

	slotStart, err := time.Parse(time.RFC3339, req.SlotStart)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid slot_start format (use RFC 3339)")
	}

	cfg, err := services.LoadTenantConfig(db.DB, tenant.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load tenant configuration")
	}

	input := services.CreateManualAppointmentInput{
		TenantID:       tenant.ID,
		ServiceID:      req.ServiceID,
		SlotStart:      slotStart,
		Config:         cfg,
		CustomerID:     req.CustomerID,
		ActorID:        req.ActorID,
		IdempotencyKey: req.IdempotencyKey,
	}
	if req.CustomerID == nil {
		input.Guest = &services.GuestContact{Name: req.GuestName, Email: req.GuestEmail, Phone: req.GuestPhone}
	}

	apt, err := services.CreateManualAppointment(db.DB, input)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, apt)
}

// GetAppointmentsHandler lists a tenant's appointments with optional filters
func GetAppointmentsHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)

	filters := services.AppointmentFilters{
		ServiceID:       c.QueryParam("service_id"),
		Status:          c.QueryParam("status"),
		IncludeCanceled: c.QueryParam("include_canceled") == "true",
	}

	if fromStr := c.QueryParam("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid from date format (use YYYY-MM-DD)")
		}
		filters.From = from
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid to date format (use YYYY-MM-DD)")
		}
		filters.To = to.Add(24 * time.Hour) // Include the end date
	}

	appointments, err := services.ListAppointments(db.DB, tenant.ID, filters)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch appointments")
	}

	return c.JSON(http.StatusOK, appointments)
}

// GetAppointmentHandler fetches one appointment by id
func GetAppointmentHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)

	apt, err := services.GetAppointmentByID(db.DB, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	if apt.TenantID != tenant.ID {
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	}

	return c.JSON(http.StatusOK, apt)
}

// UpdateAppointmentHandler reschedules or re-statuses an appointment under
// optimistic locking. expected_version is mandatory; a stale version gets 409
// with the current one.
func UpdateAppointmentHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)

	var req struct {
		ExpectedVersion int     `json:"expected_version"`
		SlotStart       *string `json:"slot_start"` // RFC 3339
		SlotEnd         *string `json:"slot_end"`
		ServiceID       *string `json:"service_id"`
		Status          *string `json:"status"`
		ActorID         *string `json:"actor_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.ExpectedVersion < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "expected_version is required")
	}

	apt, err := services.GetAppointmentByID(db.DB, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	if apt.TenantID != tenant.ID {
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	}

	input := services.UpdateAppointmentInput{
		ID:               apt.ID,
		ExpectedVersion:  req.ExpectedVersion,
		NewServiceID:     req.ServiceID,
		NewStatus:        req.Status,
		ActorID:          req.ActorID,
		SkipHorizonCheck: true,
	}

	if req.SlotStart != nil {
		start, err := time.Parse(time.RFC3339, *req.SlotStart)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid slot_start format (use RFC 3339)")
		}
		input.NewSlotStart = &start
	}
	if req.SlotEnd != nil {
		end, err := time.Parse(time.RFC3339, *req.SlotEnd)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid slot_end format (use RFC 3339)")
		}
		input.NewSlotEnd = &end
	}

	if input.NewSlotStart != nil || input.NewSlotEnd != nil || input.NewServiceID != nil {
		cfg, err := services.LoadTenantConfig(db.DB, tenant.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load tenant configuration")
		}
		input.Config = cfg

		// A reschedule that only moves the start keeps the service duration
		if input.NewSlotStart != nil && input.NewSlotEnd == nil {
			serviceID := apt.ServiceID
			if input.NewServiceID != nil {
				serviceID = *input.NewServiceID
			}
			svc := cfg.ServiceByID(serviceID)
			if svc == nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Unknown service")
			}
			end := input.NewSlotStart.Add(time.Duration(svc.DurationMinutes) * time.Minute)
			input.NewSlotEnd = &end
		}
	}

	updated, err := services.UpdateAppointment(db.DB, input)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, updated)
}

// CancelAppointmentHandler cancels an appointment from the operator side
func CancelAppointmentHandler(c echo.Context) error {
	return appointmentTransition(c, services.CancelAppointment)
}

// CompleteAppointmentHandler marks an appointment completed
func CompleteAppointmentHandler(c echo.Context) error {
	return appointmentTransition(c, services.CompleteAppointment)
}

// MarkNoShowHandler marks an appointment as a no-show
func MarkNoShowHandler(c echo.Context) error {
	return appointmentTransition(c, services.MarkNoShow)
}

func appointmentTransition(c echo.Context, transition func(db *gorm.DB, id string, actorID *string) error) error {
	tenant := middleware.GetCurrentTenant(c)

	var req struct {
		ActorID *string `json:"actor_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	apt, err := services.GetAppointmentByID(db.DB, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	if apt.TenantID != tenant.ID {
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	}

	if err := transition(db.DB, apt.ID, req.ActorID); err != nil {
		return serviceError(c, err)
	}

	updated, err := services.GetAppointmentByID(db.DB, apt.ID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}
