package services

import (
	"encoding/json"
	"fmt"
	"time"

	"rivo_booking_go/models"

	"gorm.io/gorm"
)

// RecordAuditEvent appends one lifecycle transition to the audit trail. It
// runs synchronously on the caller's transaction so a rolled-back operation
// leaves no audit row behind.
func RecordAuditEvent(tx *gorm.DB, tenantID, appointmentID string, action models.AuditAction, actorID *string, before, after interface{}) error {
	var beforeJSON, afterJSON string

	if before != nil {
		bytes, err := json.Marshal(before)
		if err != nil {
			return fmt.Errorf("failed to encode audit before-state: %w", err)
		}
		beforeJSON = string(bytes)
	}
	if after != nil {
		bytes, err := json.Marshal(after)
		if err != nil {
			return fmt.Errorf("failed to encode audit after-state: %w", err)
		}
		afterJSON = string(bytes)
	}

	entry := models.AuditLog{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		Action:        action,
		ActorID:       actorID,
		Before:        beforeJSON,
		After:         afterJSON,
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// GetAppointmentAuditHistory retrieves the full trail of one appointment,
// oldest first
func GetAppointmentAuditHistory(db *gorm.DB, appointmentID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

// AuditLogFilters contains filter options for tenant-wide audit queries
type AuditLogFilters struct {
	Action   models.AuditAction
	ActorID  string
	DateFrom time.Time
	DateTo   time.Time
}

// GetTenantAuditLogs retrieves paginated audit logs for a tenant, newest
// first
func GetTenantAuditLogs(db *gorm.DB, tenantID string, filters AuditLogFilters, page, pageSize int) ([]models.AuditLog, int64, error) {
	query := db.Model(&models.AuditLog{}).Where("tenant_id = ?", tenantID)

	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.ActorID != "" {
		query = query.Where("actor_id = ?", filters.ActorID)
	}
	if !filters.DateFrom.IsZero() {
		query = query.Where("created_at >= ?", filters.DateFrom)
	}
	if !filters.DateTo.IsZero() {
		query = query.Where("created_at <= ?", filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	var logs []models.AuditLog
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error

	return logs, total, err
}
