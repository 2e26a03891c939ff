package services

import (
	"path/filepath"
	"testing"

	"rivo_booking_go/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh WAL-mode database in a per-test temp directory,
// the same configuration production runs with. A file database keeps the
// concurrency tests honest where :memory: would not.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.Category{},
		&models.Service{},
		&models.Availability{},
		&models.AvailabilityException{},
		&models.Reservation{},
		&models.Appointment{},
		&models.AuditLog{},
		&models.NotificationLog{},
	)
	assert.NoError(t, err)

	return db
}

// testTenantConfig builds a config with Mon-Fri 09:00-13:00 / 14:00-17:00
// hours and a single 30-minute service
func testTenantConfig(serviceID string) *models.TenantConfig {
	cfg := &models.TenantConfig{
		BusinessName:            "Test Studio",
		Timezone:                "UTC",
		Currency:                "EUR",
		TimeSlotDurationMinutes: 30,
		Categories: []models.CategoryConfig{{
			Name: "Services",
			Services: []models.ServiceConfig{{
				ID:                      serviceID,
				Name:                    "Consultation",
				DurationMinutes:         30,
				MaxSimultaneousBookings: 1,
				Enabled:                 true,
			}},
		}},
		BookingLimits: models.BookingLimits{
			AdvanceBookingDays:       30,
			MinAdvanceBookingMinutes: 60,
			MaxSimultaneousBookings:  1,
		},
	}

	for day := 0; day < 7; day++ {
		entry := models.DayAvailability{Day: day}
		if day >= 1 && day <= 5 {
			entry.Enabled = true
			entry.Slots = []models.TimeRange{
				{Open: "09:00", Close: "13:00"},
				{Open: "14:00", Close: "17:00"},
			}
		}
		cfg.Availability = append(cfg.Availability, entry)
	}

	return cfg
}
