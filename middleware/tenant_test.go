package middleware

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"rivo_booking_go/db"
	"rivo_booking_go/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMiddlewareTestDB(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	assert.NoError(t, err)

	err = gdb.AutoMigrate(&models.Tenant{})
	assert.NoError(t, err)

	prev := db.DB
	db.DB = gdb
	t.Cleanup(func() { db.DB = prev })
}

func resolveTenantRequest(t *testing.T, subdomain string) (*httptest.ResponseRecorder, *models.Tenant) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("subdomain")
	c.SetParamValues(subdomain)

	var seen *models.Tenant
	handler := ResolveTenant()(func(c echo.Context) error {
		seen = GetCurrentTenant(c)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, seen
}

func TestResolveTenant(t *testing.T) {
	setupMiddlewareTestDB(t)

	active := &models.Tenant{
		Name:      "Active Studio",
		Subdomain: "active-studio",
		Status:    models.TenantStatusActive,
	}
	assert.NoError(t, db.DB.Create(active).Error)

	suspended := &models.Tenant{
		Name:      "Suspended Studio",
		Subdomain: "suspended-studio",
		Status:    models.TenantStatusSuspended,
	}
	assert.NoError(t, db.DB.Create(suspended).Error)

	t.Run("ActiveTenantResolved", func(t *testing.T) {
		rec, seen := resolveTenantRequest(t, "active-studio")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, seen)
		assert.Equal(t, active.ID, seen.ID)
	})

	t.Run("UnknownSubdomain", func(t *testing.T) {
		rec, seen := resolveTenantRequest(t, "no-such-tenant")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("MalformedSubdomain", func(t *testing.T) {
		rec, _ := resolveTenantRequest(t, "Not_Valid!")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("SuspendedTenantForbidden", func(t *testing.T) {
		rec, seen := resolveTenantRequest(t, "suspended-studio")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Nil(t, seen)
	})
}
