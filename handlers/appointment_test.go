package handlers

import (
	"net/http"
	"testing"
	"time"

	"rivo_booking_go/db"
	"rivo_booking_go/models"
	"rivo_booking_go/services"

	"github.com/stretchr/testify/assert"
)

func createViaHandler(t *testing.T, tenant *models.Tenant, serviceID string, slotStart time.Time, key string) map[string]interface{} {
	body := map[string]interface{}{
		"service_id":      serviceID,
		"slot_start":      slotStart.Format(time.RFC3339),
		"idempotency_key": key,
		"guest_name":      "Walk In",
	}
	rec := invoke(t, tenant, CreateAppointmentHandler, http.MethodPost, "/appointments", body, nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody(t, rec)
}

func TestCreateAppointmentHandler(t *testing.T) {
	tenant, service := setupHandlerTest(t)
	slotStart := nextMonday10()

	t.Run("MissingIdempotencyKey", func(t *testing.T) {
		body := map[string]interface{}{
			"service_id": service.ID,
			"slot_start": slotStart.Format(time.RFC3339),
		}
		rec := invoke(t, tenant, CreateAppointmentHandler, http.MethodPost, "/appointments", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	apt := createViaHandler(t, tenant, service.ID, slotStart, "op-create-1")
	assert.Regexp(t, `^RIVO-[A-Z0-9]{3}-[A-Z0-9]{3}-[A-Z0-9]{3}$`, apt["booking_code"])
	assert.Equal(t, "confirmed", apt["status"])
	assert.Equal(t, float64(1), apt["version"])

	t.Run("IdempotentReplay", func(t *testing.T) {
		replay := createViaHandler(t, tenant, service.ID, slotStart, "op-create-1")
		assert.Equal(t, apt["id"], replay["id"])
	})

	t.Run("FullSlotConflicts", func(t *testing.T) {
		body := map[string]interface{}{
			"service_id":      service.ID,
			"slot_start":      slotStart.Format(time.RFC3339),
			"idempotency_key": "op-create-2",
			"guest_name":      "Second",
		}
		rec := invoke(t, tenant, CreateAppointmentHandler, http.MethodPost, "/appointments", body, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUpdateAppointmentHandler(t *testing.T) {
	tenant, service := setupHandlerTest(t)
	slotStart := nextMonday10()
	apt := createViaHandler(t, tenant, service.ID, slotStart, "op-update-1")
	aptID := apt["id"].(string)

	t.Run("ExpectedVersionRequired", func(t *testing.T) {
		rec := invoke(t, tenant, UpdateAppointmentHandler, http.MethodPut, "/appointments/"+aptID,
			map[string]interface{}{}, map[string]string{"id": aptID})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("StaleVersionConflicts", func(t *testing.T) {
		body := map[string]interface{}{
			"expected_version": 5,
			"slot_start":       slotStart.Add(time.Hour).Format(time.RFC3339),
		}
		rec := invoke(t, tenant, UpdateAppointmentHandler, http.MethodPut, "/appointments/"+aptID,
			body, map[string]string{"id": aptID})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, float64(1), decodeBody(t, rec)["current_version"])
	})

	t.Run("Reschedule", func(t *testing.T) {
		// Only slot_start is sent; the handler derives the end from the
		// service duration
		body := map[string]interface{}{
			"expected_version": 1,
			"slot_start":       slotStart.Add(time.Hour).Format(time.RFC3339),
		}
		rec := invoke(t, tenant, UpdateAppointmentHandler, http.MethodPut, "/appointments/"+aptID,
			body, map[string]string{"id": aptID})
		assert.Equal(t, http.StatusOK, rec.Code)

		updated := decodeBody(t, rec)
		assert.Equal(t, float64(2), updated["version"])

		start, err := time.Parse(time.RFC3339, updated["slot_start"].(string))
		assert.NoError(t, err)
		end, err := time.Parse(time.RFC3339, updated["slot_end"].(string))
		assert.NoError(t, err)
		assert.True(t, start.Equal(slotStart.Add(time.Hour)))
		assert.Equal(t, 30*time.Minute, end.Sub(start))
	})

	t.Run("RescheduleOutsideHours", func(t *testing.T) {
		body := map[string]interface{}{
			"expected_version": 2,
			"slot_start":       slotStart.AddDate(0, 0, 6).Format(time.RFC3339), // Sunday
		}
		rec := invoke(t, tenant, UpdateAppointmentHandler, http.MethodPut, "/appointments/"+aptID,
			body, map[string]string{"id": aptID})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "OFF_TIME_CONFLICT", decodeBody(t, rec)["code"])
	})

	t.Run("CancelViaStatusRejected", func(t *testing.T) {
		body := map[string]interface{}{
			"expected_version": 2,
			"status":           "canceled",
		}
		rec := invoke(t, tenant, UpdateAppointmentHandler, http.MethodPut, "/appointments/"+aptID,
			body, map[string]string{"id": aptID})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = invoke(t, tenant, GetAppointmentHandler, http.MethodGet, "/appointments/"+aptID,
			nil, map[string]string{"id": aptID})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "confirmed", decodeBody(t, rec)["status"])
	})

	t.Run("UnknownAppointment", func(t *testing.T) {
		body := map[string]interface{}{"expected_version": 1}
		rec := invoke(t, tenant, UpdateAppointmentHandler, http.MethodPut, "/appointments/missing",
			body, map[string]string{"id": "00000000-0000-0000-0000-000000000000"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAppointmentLifecycleHandlers(t *testing.T) {
	tenant, service := setupHandlerTest(t)
	slotStart := nextMonday10()

	first := createViaHandler(t, tenant, service.ID, slotStart, "op-life-1")
	firstID := first["id"].(string)

	t.Run("Cancel", func(t *testing.T) {
		rec := invoke(t, tenant, CancelAppointmentHandler, http.MethodPost, "/appointments/"+firstID+"/cancel",
			map[string]interface{}{}, map[string]string{"id": firstID})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "canceled", decodeBody(t, rec)["status"])

		rec = invoke(t, tenant, CancelAppointmentHandler, http.MethodPost, "/appointments/"+firstID+"/cancel",
			map[string]interface{}{}, map[string]string{"id": firstID})
		assert.Equal(t, http.StatusGone, rec.Code)
	})

	second := createViaHandler(t, tenant, service.ID, slotStart.Add(time.Hour), "op-life-2")
	secondID := second["id"].(string)

	t.Run("CompleteThenNoShowRejected", func(t *testing.T) {
		rec := invoke(t, tenant, CompleteAppointmentHandler, http.MethodPost, "/appointments/"+secondID+"/complete",
			map[string]interface{}{}, map[string]string{"id": secondID})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "completed", decodeBody(t, rec)["status"])

		rec = invoke(t, tenant, MarkNoShowHandler, http.MethodPost, "/appointments/"+secondID+"/no-show",
			map[string]interface{}{}, map[string]string{"id": secondID})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ListWithFilters", func(t *testing.T) {
		rec := invoke(t, tenant, GetAppointmentsHandler, http.MethodGet, "/appointments?status=completed", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		var listed []map[string]interface{}
		assert.NoError(t, decodeInto(rec, &listed))
		assert.Len(t, listed, 1)
		assert.Equal(t, secondID, listed[0]["id"])

		rec = invoke(t, tenant, GetAppointmentsHandler, http.MethodGet, "/appointments?include_canceled=true", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, decodeInto(rec, &listed))
		assert.Len(t, listed, 2)
	})

	t.Run("TenantScoping", func(t *testing.T) {
		other := &models.Tenant{Name: "Other Studio"}
		assert.NoError(t, services.CreateTenant(db.DB, other))

		rec := invoke(t, other, GetAppointmentHandler, http.MethodGet, "/appointments/"+secondID,
			nil, map[string]string{"id": secondID})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAuditLogHandlers(t *testing.T) {
	tenant, service := setupHandlerTest(t)
	slotStart := nextMonday10()

	apt := createViaHandler(t, tenant, service.ID, slotStart, "op-audit-1")
	aptID := apt["id"].(string)

	rec := invoke(t, tenant, UpdateAppointmentHandler, http.MethodPut, "/appointments/"+aptID,
		map[string]interface{}{
			"expected_version": 1,
			"slot_start":       slotStart.Add(time.Hour).Format(time.RFC3339),
		}, map[string]string{"id": aptID})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = invoke(t, tenant, CancelAppointmentHandler, http.MethodPost, "/appointments/"+aptID+"/cancel",
		map[string]interface{}{}, map[string]string{"id": aptID})
	assert.Equal(t, http.StatusOK, rec.Code)

	t.Run("AppointmentHistory", func(t *testing.T) {
		rec := invoke(t, tenant, GetAppointmentHistoryHandler, http.MethodGet, "/appointments/"+aptID+"/history",
			nil, map[string]string{"id": aptID})
		assert.Equal(t, http.StatusOK, rec.Code)

		var history []map[string]interface{}
		assert.NoError(t, decodeInto(rec, &history))
		assert.Len(t, history, 3)
		assert.Equal(t, "created", history[0]["action"])
		assert.Equal(t, "modified", history[1]["action"])
		assert.Equal(t, "canceled", history[2]["action"])
	})

	t.Run("TenantAuditTrail", func(t *testing.T) {
		rec := invoke(t, tenant, GetAuditLogsHandler, http.MethodGet, "/audit-logs?action=canceled", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, float64(1), body["total"])
		logs := body["logs"].([]interface{})
		assert.Len(t, logs, 1)
	})
}

func TestMaintenanceHandlers(t *testing.T) {
	tenant, service := setupHandlerTest(t)

	// Seed one expired hold directly
	expired := &models.Reservation{
		TenantID:       tenant.ID,
		ServiceID:      service.ID,
		SlotStart:      nextMonday10(),
		SlotEnd:        nextMonday10().Add(30 * time.Minute),
		IdempotencyKey: "maint-expired",
		ExpiresAt:      time.Now().UTC().Add(-time.Minute),
	}
	assert.NoError(t, db.DB.Create(expired).Error)

	rec := invoke(t, tenant, CleanupReservationsHandler, http.MethodPost, "/reservations/cleanup", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["deleted"])

	rec = invoke(t, tenant, ReservationHealthHandler, http.MethodGet, "/reservations/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
