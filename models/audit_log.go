package models

import (
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction represents a lifecycle transition recorded in the audit trail
type AuditAction string

const (
	AuditActionCreated   AuditAction = "created"
	AuditActionConfirmed AuditAction = "confirmed"
	AuditActionModified  AuditAction = "modified"
	AuditActionCanceled  AuditAction = "canceled"
	AuditActionCompleted AuditAction = "completed"
	AuditActionNoShow    AuditAction = "no_show"
)

// AuditLog is an immutable record of an appointment lifecycle transition.
// A derived projection can reconstruct any appointment's state at any point
// in time from these rows.
type AuditLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_audit_created_at" json:"created_at"`

	TenantID      string `gorm:"type:uuid;not null;index:idx_audit_tenant" json:"tenant_id"`
	AppointmentID string `gorm:"type:uuid;not null;index:idx_audit_appointment" json:"appointment_id"`

	Action  AuditAction `gorm:"not null;index:idx_audit_action" json:"action"`
	ActorID *string     `gorm:"type:uuid" json:"actor_id,omitempty"` // nil for guest/system actions

	// Structured before/after states, JSON encoded
	Before string `gorm:"type:text" json:"before,omitempty"`
	After  string `gorm:"type:text" json:"after,omitempty"`
}

// AuditChange represents a single field change
type AuditChange struct {
	Field string
	Old   interface{}
	New   interface{}
}

// Changes parses Before and After into a slice of AuditChange
func (a *AuditLog) Changes() []AuditChange {
	var changes []AuditChange
	oldMap := make(map[string]interface{})
	newMap := make(map[string]interface{})

	if a.Before != "" {
		_ = json.Unmarshal([]byte(a.Before), &oldMap)
	}
	if a.After != "" {
		_ = json.Unmarshal([]byte(a.After), &newMap)
	}

	keys := make(map[string]struct{})
	for k := range oldMap {
		keys[k] = struct{}{}
	}
	for k := range newMap {
		keys[k] = struct{}{}
	}

	for k := range keys {
		o := oldMap[k]
		n := newMap[k]
		if !reflect.DeepEqual(o, n) {
			changes = append(changes, AuditChange{Field: k, Old: o, New: n})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

// BeforeCreate generates UUID
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate prevents modification of audit logs (immutability)
func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// BeforeDelete prevents deletion of audit logs (immutability)
func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}
