package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Availability represents one open interval of a tenant's weekly template.
// A day with several rows models split shifts; a day with no enabled rows is
// closed.
type Availability struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID  string `gorm:"type:uuid;index;not null" json:"tenant_id"`
	DayOfWeek int    `gorm:"not null" json:"day_of_week"` // 0=Sunday...6=Saturday
	OpenTime  string `gorm:"size:5;not null" json:"open_time"`  // "09:00"
	CloseTime string `gorm:"size:5;not null" json:"close_time"` // "13:00"
	Position  int    `gorm:"not null;default:0" json:"position"`
	Enabled   bool   `gorm:"default:true" json:"enabled"`

	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
}

// BeforeCreate hook to generate UUID
func (a *Availability) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Availability model
func (Availability) TableName() string {
	return "availability_weekly"
}

// DayName returns the name of the day
func (a *Availability) DayName() string {
	days := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if a.DayOfWeek >= 0 && a.DayOfWeek < 7 {
		return days[a.DayOfWeek]
	}
	return ""
}

// AvailabilityException overrides the weekly template for a single civil
// date: either a full-day closure or a replacement open interval.
type AvailabilityException struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID string  `gorm:"type:uuid;index;not null" json:"tenant_id"`
	Date     string  `gorm:"size:10;not null;index" json:"date"` // "2006-01-02" in tenant timezone
	Closed   bool    `gorm:"default:false" json:"closed"`
	OpenTime *string `gorm:"size:5" json:"open_time,omitempty"`
	CloseTime *string `gorm:"size:5" json:"close_time,omitempty"`
	Reason   string  `json:"reason,omitempty"`

	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
}

// BeforeCreate hook to generate UUID
func (e *AvailabilityException) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for AvailabilityException model
func (AvailabilityException) TableName() string {
	return "availability_exceptions"
}
