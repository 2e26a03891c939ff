package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reservation is a short-lived capacity hold created before an appointment is
// committed. An expired reservation is invisible to capacity and commit logic
// and is eligible for deletion by the sweeper.
type Reservation struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TenantID  string    `gorm:"type:uuid;not null;index:idx_reservations_slot,priority:1" json:"tenant_id"`
	ServiceID string    `gorm:"type:uuid;not null;index:idx_reservations_slot,priority:2" json:"service_id"`
	SlotStart time.Time `gorm:"not null;index:idx_reservations_slot,priority:3" json:"slot_start"`
	SlotEnd   time.Time `gorm:"not null" json:"slot_end"`

	IdempotencyKey string    `gorm:"size:200;uniqueIndex;not null" json:"idempotency_key"`
	ExpiresAt      time.Time `gorm:"not null;index" json:"expires_at"`
}

// BeforeCreate hook to generate UUID
func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Reservation model
func (Reservation) TableName() string {
	return "reservations"
}

// IsExpired reports whether the hold no longer counts toward capacity
func (r *Reservation) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
