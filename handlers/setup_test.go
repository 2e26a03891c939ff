package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"rivo_booking_go/config"
	"rivo_booking_go/db"
	"rivo_booking_go/middleware"
	"rivo_booking_go/models"
	"rivo_booking_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testAppConfig = &config.Config{
	Environment:   "test",
	EmailTestMode: true,
	EmailFrom:     "bookings@example.test",
	EmailFromName: "Test Bookings",
	AppURL:        "http://localhost:8080",
}

// setupHandlerTest wires the global DB to a fresh test database and seeds an
// active tenant with default hours and one enabled 30-minute service.
func setupHandlerTest(t *testing.T) (*models.Tenant, *models.Service) {
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	assert.NoError(t, err)

	err = gdb.AutoMigrate(
		&models.Tenant{}, &models.Category{}, &models.Service{},
		&models.Availability{}, &models.AvailabilityException{},
		&models.Reservation{}, &models.Appointment{},
		&models.AuditLog{}, &models.NotificationLog{},
	)
	assert.NoError(t, err)
	assert.NoError(t, db.InstallCapacityGuard(gdb))

	prev := db.DB
	db.DB = gdb
	t.Cleanup(func() { db.DB = prev })

	tenant := &models.Tenant{
		Name:                     "Handler Studio",
		Timezone:                 "UTC",
		AdvanceBookingDays:       30,
		MinAdvanceBookingMinutes: 60,
		TimeSlotDurationMinutes:  30,
		MaxSimultaneousBookings:  1,
		RequireName:              true,
		RequireEmail:             true,
		AllowCancellation:        true,
	}
	assert.NoError(t, services.CreateTenant(gdb, tenant))
	assert.NoError(t, services.CreateDefaultAvailability(gdb, tenant.ID))

	service := &models.Service{
		TenantID:                tenant.ID,
		Name:                    "Cut",
		DurationMinutes:         30,
		PriceCents:              2500,
		MaxSimultaneousBookings: 1,
		Enabled:                 true,
	}
	assert.NoError(t, gdb.Create(service).Error)

	return tenant, service
}

// nextMonday10 returns the first upcoming Monday at 10:00 UTC that is at
// least two days out, comfortably inside the default booking window.
func nextMonday10() time.Time {
	day := time.Now().UTC().AddDate(0, 0, 2)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)
}

// invoke runs a handler against a synthetic request with the tenant and app
// config already resolved, the way the router middleware would leave them.
func invoke(t *testing.T, tenant *models.Tenant, handler echo.HandlerFunc, method, target string, body interface{}, params map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	e := echo.New()
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextKeyTenant, tenant)
	c.Set("config", testAppConfig)

	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for name, value := range params {
		names = append(names, name)
		values = append(values, value)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeInto(rec *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}
