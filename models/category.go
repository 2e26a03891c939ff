package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups services for display. Soft-deleted categories keep their
// services reachable through historical appointments.
type Category struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID    string `gorm:"type:uuid;index;not null" json:"tenant_id"`
	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	DisplayOrder int   `gorm:"not null;default:0" json:"display_order"`

	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
}

// BeforeCreate hook to generate UUID
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Category model
func (Category) TableName() string {
	return "categories"
}
