package services

import (
	"errors"
	"fmt"

	"rivo_booking_go/models"

	"gorm.io/gorm"
)

// LoadTenantConfig assembles the engine-facing config view from a tenant's
// persisted rows. The result is what slot generation and admission treat as
// authoritative; invalidate the off-time cache whenever these rows change.
func LoadTenantConfig(db *gorm.DB, tenantID string) (*models.TenantConfig, error) {
	var tenant models.Tenant
	if err := db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown tenant %s", ErrInvalidInput, tenantID)
		}
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	cfg := &models.TenantConfig{
		BusinessName:            tenant.Name,
		Timezone:                tenant.Timezone,
		Currency:                tenant.Currency,
		TimeSlotDurationMinutes: tenant.TimeSlotDurationMinutes,
		BookingLimits: models.BookingLimits{
			AdvanceBookingDays:       tenant.AdvanceBookingDays,
			MinAdvanceBookingMinutes: tenant.MinAdvanceBookingMinutes,
			MaxSimultaneousBookings:  tenant.MaxSimultaneousBookings,
		},
		BookingRequirements: models.BookingRequirements{
			RequireName:  tenant.RequireName,
			RequireEmail: tenant.RequireEmail,
			RequirePhone: tenant.RequirePhone,
		},
		CancellationPolicy: models.CancellationPolicy{
			AllowCancellation: tenant.AllowCancellation,
		},
	}

	// Categories with their services, in display order
	var categories []models.Category
	if err := db.Where("tenant_id = ?", tenantID).Order("display_order, name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	var services []models.Service
	if err := db.Where("tenant_id = ?", tenantID).Order("sort_order, name").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}

	byCategory := make(map[string][]models.ServiceConfig)
	var uncategorized []models.ServiceConfig
	for _, svc := range services {
		entry := models.ServiceConfig{
			ID:                      svc.ID,
			Name:                    svc.Name,
			DurationMinutes:         svc.DurationMinutes,
			PriceCents:              svc.PriceCents,
			MaxSimultaneousBookings: svc.MaxSimultaneousBookings,
			BufferBeforeMinutes:     svc.BufferBeforeMinutes,
			BufferAfterMinutes:      svc.BufferAfterMinutes,
			Enabled:                 svc.Enabled,
		}
		if svc.CategoryID != nil {
			byCategory[*svc.CategoryID] = append(byCategory[*svc.CategoryID], entry)
		} else {
			uncategorized = append(uncategorized, entry)
		}
	}

	for _, cat := range categories {
		cfg.Categories = append(cfg.Categories, models.CategoryConfig{
			ID:          cat.ID,
			Name:        cat.Name,
			Description: cat.Description,
			Services:    byCategory[cat.ID],
		})
	}
	if len(uncategorized) > 0 {
		cfg.Categories = append(cfg.Categories, models.CategoryConfig{
			Name:     "Services",
			Services: uncategorized,
		})
	}

	// Weekly template
	var weekly []models.Availability
	if err := db.Where("tenant_id = ? AND enabled = ?", tenantID, true).
		Order("day_of_week, position, open_time").Find(&weekly).Error; err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	byDay := make(map[int][]models.TimeRange)
	for _, row := range weekly {
		byDay[row.DayOfWeek] = append(byDay[row.DayOfWeek], models.TimeRange{Open: row.OpenTime, Close: row.CloseTime})
	}
	for day := 0; day < 7; day++ {
		slots := byDay[day]
		cfg.Availability = append(cfg.Availability, models.DayAvailability{
			Day:     day,
			Enabled: len(slots) > 0,
			Slots:   slots,
		})
	}

	// Date exceptions
	var exceptions []models.AvailabilityException
	if err := db.Where("tenant_id = ?", tenantID).Order("date").Find(&exceptions).Error; err != nil {
		return nil, fmt.Errorf("failed to load availability exceptions: %w", err)
	}
	for _, ex := range exceptions {
		entry := models.ExceptionConfig{
			Date:   ex.Date,
			Closed: ex.Closed,
			Reason: ex.Reason,
		}
		if ex.OpenTime != nil {
			entry.Open = *ex.OpenTime
		}
		if ex.CloseTime != nil {
			entry.Close = *ex.CloseTime
		}
		cfg.AvailabilityExceptions = append(cfg.AvailabilityExceptions, entry)
	}

	return cfg, nil
}
