package handlers

import (
	"net/http"
	"time"

	"rivo_booking_go/config"
	"rivo_booking_go/db"
	"rivo_booking_go/middleware"
	"rivo_booking_go/models"
	"rivo_booking_go/services"

	"github.com/labstack/echo/v4"
)

// GetBookingConfigHandler returns the public booking configuration for the
// tenant: services on offer, contact requirements, cancellation policy
func GetBookingConfigHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)

	cfg, err := services.LoadTenantConfig(db.DB, tenant.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load tenant configuration")
	}

	type serviceView struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		DurationMinutes int    `json:"duration_minutes"`
		PriceCents      int    `json:"price_cents"`
	}
	type categoryView struct {
		ID          string        `json:"id"`
		Name        string        `json:"name"`
		Description string        `json:"description,omitempty"`
		Services    []serviceView `json:"services"`
	}

	categories := make([]categoryView, 0, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		view := categoryView{ID: cat.ID, Name: cat.Name, Description: cat.Description}
		for _, svc := range cat.Services {
			if !svc.Enabled {
				continue
			}
			view.Services = append(view.Services, serviceView{
				ID:              svc.ID,
				Name:            svc.Name,
				DurationMinutes: svc.DurationMinutes,
				PriceCents:      svc.PriceCents,
			})
		}
		if len(view.Services) > 0 {
			categories = append(categories, view)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"business_name":      cfg.BusinessName,
		"timezone":           cfg.Timezone,
		"currency":           cfg.Currency,
		"categories":         categories,
		"require_name":       cfg.BookingRequirements.RequireName,
		"require_email":      cfg.BookingRequirements.RequireEmail,
		"require_phone":      cfg.BookingRequirements.RequirePhone,
		"allow_cancellation": cfg.CancellationPolicy.AllowCancellation,
	})
}

// GetSlotsHandler returns the slot grid for a service over a date range
func GetSlotsHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)

	serviceID := c.QueryParam("service_id")
	if serviceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "service_id is required")
	}

	cfg, err := services.LoadTenantConfig(db.DB, tenant.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load tenant configuration")
	}
	if cfg.ServiceByID(serviceID) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Service not found")
	}

	loc := cfg.Location()
	now := time.Now().UTC()

	from := services.StartOfDay(now.In(loc), loc)
	if fromStr := c.QueryParam("from"); fromStr != "" {
		day, err := time.ParseInLocation("2006-01-02", fromStr, loc)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid from date format (use YYYY-MM-DD)")
		}
		from = day
	}

	to := from.AddDate(0, 0, 7)
	if toStr := c.QueryParam("to"); toStr != "" {
		day, err := time.ParseInLocation("2006-01-02", toStr, loc)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid to date format (use YYYY-MM-DD)")
		}
		to = services.EndOfDay(day, loc)
	}
	if !to.After(from) {
		return echo.NewHTTPError(http.StatusBadRequest, "to must be after from")
	}

	slots, err := services.GenerateSlots(db.DB, tenant.ID, cfg, serviceID, from, to, now)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate slots")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"service_id": serviceID,
		"timezone":   cfg.Timezone,
		"slots":      slots,
	})
}

// CreateReservationHandler places a short-lived hold on a slot
func CreateReservationHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)

	var req struct {
		ServiceID      string `json:"service_id"`
		SlotStart      string `json:"slot_start"` // RFC 3339
		IdempotencyKey string `json:"idempotency_key"`
		TTLMinutes     int    `json:"ttl_minutes"`
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
	svc := cfg.ServiceByID(req.ServiceID)
	if svc == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Service not found")
	}

	slotEnd := slotStart.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	snappedStart, snappedEnd, err := services.ValidateAndSnapBookingTime(services.BookingTimeInput{
		Config:       cfg,
		SlotStart:    slotStart.UTC(),
		SlotEnd:      slotEnd.UTC(),
		BufferBefore: time.Duration(svc.BufferBeforeMinutes) * time.Minute,
		BufferAfter:  time.Duration(svc.BufferAfterMinutes) * time.Minute,
	})
	if err != nil {
		return serviceError(c, err)
	}

	hold, err := services.CreateReservation(db.DB, services.CreateReservationInput{
		TenantID:                tenant.ID,
		ServiceID:               req.ServiceID,
		SlotStart:               snappedStart,
		SlotEnd:                 snappedEnd,
		IdempotencyKey:          req.IdempotencyKey,
		TTL:                     time.Duration(req.TTLMinutes) * time.Minute,
		MaxSimultaneousBookings: svc.MaxSimultaneousBookings,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, hold)
}

// ExtendReservationHandler pushes a hold's expiry out while the guest fills
// the contact form
func ExtendReservationHandler(c echo.Context) error {
	var req struct {
		AdditionalMinutes int `json:"additional_minutes"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	hold, err := services.ExtendReservation(db.DB, c.Param("id"), time.Duration(req.AdditionalMinutes)*time.Minute)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, hold)
}

// ReleaseReservationHandler releases a hold before it expires
func ReleaseReservationHandler(c echo.Context) error {
	if err := services.DeleteReservation(db.DB, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to release reservation")
	}
	return c.NoContent(http.StatusNoContent)
}

// CommitReservationHandler turns a hold into a confirmed appointment
func CommitReservationHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)
	appCfg := c.Get("config").(*config.Config)

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	cfg, err := services.LoadTenantConfig(db.DB, tenant.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load tenant configuration")
	}

	if cfg.BookingRequirements.RequireName && req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name is required")
	}
	if cfg.BookingRequirements.RequireEmail && req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email is required")
	}
	if cfg.BookingRequirements.RequirePhone && req.Phone == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Phone is required")
	}

	result, err := services.CommitReservation(db.DB, services.CommitReservationInput{
		ReservationID:    c.Param("id"),
		Guest:            &services.GuestContact{Name: req.Name, Email: req.Email, Phone: req.Phone},
		IssueManageToken: cfg.CancellationPolicy.AllowCancellation,
	})
	if err != nil {
		return serviceError(c, err)
	}

	services.NotifyBookingConfirmed(db.DB, appCfg, result.Appointment, result.ManageToken)

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"appointment":  result.Appointment,
		"manage_token": result.ManageToken,
	})
}

// GetGuestAppointmentHandler returns an appointment to the guest holding its
// manage token
func GetGuestAppointmentHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)

	apt, err := services.GetAppointmentByBookingCode(db.DB, tenant.ID, c.Param("code"))
	if err != nil {
		return serviceError(c, err)
	}
	if !verifyGuestToken(apt, c.QueryParam("token")) {
		return echo.NewHTTPError(http.StatusForbidden, "Invalid or expired manage token")
	}

	return c.JSON(http.StatusOK, apt)
}

// CancelGuestAppointmentHandler cancels a booking on behalf of the guest
func CancelGuestAppointmentHandler(c echo.Context) error {
	tenant := middleware.GetCurrentTenant(c)
	appCfg := c.Get("config").(*config.Config)

	if !tenant.AllowCancellation {
		return echo.NewHTTPError(http.StatusForbidden, "This business does not allow online cancellation")
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	apt, err := services.GetAppointmentByBookingCode(db.DB, tenant.ID, c.Param("code"))
	if err != nil {
		return serviceError(c, err)
	}
	if !verifyGuestToken(apt, req.Token) {
		return echo.NewHTTPError(http.StatusForbidden, "Invalid or expired manage token")
	}

	if err := services.CancelAppointment(db.DB, apt.ID, nil); err != nil {
		return serviceError(c, err)
	}

	canceled, err := services.GetAppointmentByID(db.DB, apt.ID)
	if err == nil {
		services.NotifyBookingCanceled(db.DB, appCfg, canceled)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment canceled"})
}

// verifyGuestToken checks a presented manage token against the stored hash
// and its expiry
func verifyGuestToken(apt *models.Appointment, token string) bool {
	if token == "" || apt.GuestTokenHash == nil {
		return false
	}
	if apt.GuestTokenExpiresAt != nil && time.Now().UTC().After(*apt.GuestTokenExpiresAt) {
		return false
	}
	return services.VerifyManageToken(*apt.GuestTokenHash, token)
}
