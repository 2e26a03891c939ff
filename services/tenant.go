package services

import (
	"rivo_booking_go/models"

	"gorm.io/gorm"
)

// Default working hours: Mon-Fri, 9:00-13:00 and 14:00-18:00
var defaultWeeklyHours = []struct {
	DayOfWeek int
	OpenTime  string
	CloseTime string
	Position  int
}{
	{1, "09:00", "13:00", 0},
	{1, "14:00", "18:00", 1},
	{2, "09:00", "13:00", 0},
	{2, "14:00", "18:00", 1},
	{3, "09:00", "13:00", 0},
	{3, "14:00", "18:00", 1},
	{4, "09:00", "13:00", 0},
	{4, "14:00", "18:00", 1},
	{5, "09:00", "13:00", 0},
	{5, "14:00", "18:00", 1},
}

// CreateTenant persists a tenant; the model hook assigns the subdomain with
// collision suffixing
func CreateTenant(db *gorm.DB, tenant *models.Tenant) error {
	return db.Create(tenant).Error
}

// GetTenantBySubdomain fetches a tenant by its subdomain slug
func GetTenantBySubdomain(db *gorm.DB, subdomain string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := db.Where("subdomain = ?", subdomain).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// CreateDefaultAvailability seeds the default weekly template for a tenant
func CreateDefaultAvailability(db *gorm.DB, tenantID string) error {
	for _, hours := range defaultWeeklyHours {
		row := &models.Availability{
			TenantID:  tenantID,
			DayOfWeek: hours.DayOfWeek,
			OpenTime:  hours.OpenTime,
			CloseTime: hours.CloseTime,
			Position:  hours.Position,
			Enabled:   true,
		}
		if err := db.Create(row).Error; err != nil {
			return err
		}
	}
	InvalidateOffTimeCache(tenantID)
	return nil
}
