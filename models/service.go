package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GrainMinutes is the booking quantum in minutes. Service durations and
// buffers must be exact multiples of it; the same constant backs the time
// arithmetic in the services package.
const GrainMinutes = 5

// Service is a bookable offering of a tenant. Capacity is a scalar: the
// number of bookings that may overlap at any instant.
type Service struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID   string  `gorm:"type:uuid;index;not null" json:"tenant_id"`
	CategoryID *string `gorm:"type:uuid;index" json:"category_id,omitempty"`

	Name            string `gorm:"size:200;not null" json:"name"`
	DurationMinutes int    `gorm:"not null" json:"duration_minutes"`
	PriceCents      int    `gorm:"not null;default:0" json:"price_cents"` // integer minor units
	Color           string `gorm:"size:20" json:"color,omitempty"`

	MaxSimultaneousBookings int `gorm:"not null;default:1" json:"max_simultaneous_bookings"`
	BufferBeforeMinutes     int `gorm:"not null;default:0" json:"buffer_before_minutes"`
	BufferAfterMinutes      int `gorm:"not null;default:0" json:"buffer_after_minutes"`
	SortOrder               int `gorm:"not null;default:0" json:"sort_order"`
	Enabled                 bool `gorm:"default:true" json:"enabled"`

	Tenant   Tenant    `gorm:"foreignKey:TenantID" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// BeforeCreate hook to generate UUID
func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// BeforeSave validates grain alignment and value ranges at the schema edge
func (s *Service) BeforeSave(tx *gorm.DB) error {
	if s.DurationMinutes <= 0 || s.DurationMinutes%GrainMinutes != 0 {
		return fmt.Errorf("service duration must be a positive multiple of %d minutes", GrainMinutes)
	}
	if s.BufferBeforeMinutes < 0 || s.BufferBeforeMinutes%GrainMinutes != 0 {
		return fmt.Errorf("buffer before must be a non-negative multiple of %d minutes", GrainMinutes)
	}
	if s.BufferAfterMinutes < 0 || s.BufferAfterMinutes%GrainMinutes != 0 {
		return fmt.Errorf("buffer after must be a non-negative multiple of %d minutes", GrainMinutes)
	}
	if s.PriceCents < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if s.MaxSimultaneousBookings < 1 {
		return fmt.Errorf("max simultaneous bookings must be at least 1")
	}
	return nil
}

// TableName specifies the table name for Service model
func (Service) TableName() string {
	return "services"
}
