package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification delivery outcomes
const (
	NotificationStatusSent   = "sent"
	NotificationStatusLogged = "logged" // test mode, not actually delivered
	NotificationStatusFailed = "failed"
)

// NotificationLog records every outbound booking notification attempt
type NotificationLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	TenantID      string `gorm:"type:uuid;index;not null" json:"tenant_id"`
	AppointmentID string `gorm:"type:uuid;index;not null" json:"appointment_id"`

	Channel   string  `gorm:"size:20;not null;default:'email'" json:"channel"`
	Recipient string  `gorm:"size:255;not null" json:"recipient"`
	Template  string  `gorm:"size:100;not null" json:"template"`
	Status    string  `gorm:"size:20;not null" json:"status"`
	Error     *string `gorm:"type:text" json:"error,omitempty"`
}

// BeforeCreate hook to generate UUID
func (n *NotificationLog) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (NotificationLog) TableName() string {
	return "notification_logs"
}
