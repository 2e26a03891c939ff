package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTenantTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	err = db.AutoMigrate(&Tenant{})
	assert.NoError(t, err)

	return db
}

func TestIsValidSubdomain(t *testing.T) {
	valid := []string{"abc", "my-salon", "salon123", "a1b", strings.Repeat("a", 63)}
	for _, s := range valid {
		assert.True(t, IsValidSubdomain(s), s)
	}

	invalid := []string{
		"",
		"ab",                      // too short
		strings.Repeat("a", 64),   // too long
		"-salon",                  // leading hyphen
		"salon-",                  // trailing hyphen
		"My-Salon",                // uppercase
		"salon_one",               // underscore
		"salón",                   // non-ascii
		"api", "www", "admin",     // reserved
	}
	for _, s := range invalid {
		assert.False(t, IsValidSubdomain(s), s)
	}
}

func TestTenantSubdomainGeneration(t *testing.T) {
	db := setupTenantTestDB(t)

	t.Run("DerivedFromName", func(t *testing.T) {
		tenant := &Tenant{Name: "Corte & Color!  Peluquería"}
		assert.NoError(t, db.Create(tenant).Error)
		assert.Equal(t, "corte-color-peluquera", tenant.Subdomain)
	})

	t.Run("CollisionGetsCounterSuffix", func(t *testing.T) {
		first := &Tenant{Name: "Studio One"}
		assert.NoError(t, db.Create(first).Error)
		assert.Equal(t, "studio-one", first.Subdomain)

		second := &Tenant{Name: "Studio One"}
		assert.NoError(t, db.Create(second).Error)
		assert.Equal(t, "studio-one-1", second.Subdomain)

		third := &Tenant{Name: "Studio One"}
		assert.NoError(t, db.Create(third).Error)
		assert.Equal(t, "studio-one-2", third.Subdomain)
	})

	t.Run("ReservedOrShortNamesGetPadded", func(t *testing.T) {
		reserved := &Tenant{Name: "API"}
		assert.NoError(t, db.Create(reserved).Error)
		assert.Equal(t, "api-booking", reserved.Subdomain)

		short := &Tenant{Name: "Jo"}
		assert.NoError(t, db.Create(short).Error)
		assert.Equal(t, "jo-booking", short.Subdomain)
	})

	t.Run("ExplicitSubdomainIsKept", func(t *testing.T) {
		tenant := &Tenant{Name: "Whatever", Subdomain: "my-chosen-name"}
		assert.NoError(t, db.Create(tenant).Error)
		assert.Equal(t, "my-chosen-name", tenant.Subdomain)
	})
}
