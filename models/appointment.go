package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment status constants
const (
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCanceled  = "canceled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusNoShow    = "no_show"
)

// Appointment is the long-lived artifact of a booking. It is created by
// committing a reservation or directly by an operator, and carries an
// optimistic-locking version that increments on every update.
type Appointment struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID  string `gorm:"type:uuid;not null;index:idx_appointments_slot,priority:1" json:"tenant_id"`
	ServiceID string `gorm:"type:uuid;not null;index:idx_appointments_slot,priority:2" json:"service_id"`

	// Human booking code, RIVO-XXX-XXX-XXX. Permanently retired even after
	// cancellation: the unique index spans soft-deleted rows.
	BookingCode string `gorm:"size:20;uniqueIndex;not null" json:"booking_code"`

	SlotStart time.Time `gorm:"not null;index:idx_appointments_slot,priority:3" json:"slot_start"`
	SlotEnd   time.Time `gorm:"not null" json:"slot_end"`

	Status  string `gorm:"size:20;default:'confirmed';index" json:"status"`
	Version int    `gorm:"not null;default:1" json:"version"`

	// Customer is either a registered user id or an embedded guest contact
	CustomerID *string `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	GuestName  *string `gorm:"size:200" json:"guest_name,omitempty"`
	GuestEmail *string `gorm:"size:255;index" json:"guest_email,omitempty"`
	GuestPhone *string `gorm:"size:30" json:"guest_phone,omitempty"`

	// Hashed token for the guest manage link (cancel/reschedule)
	GuestTokenHash      *string    `gorm:"size:100" json:"-"`
	GuestTokenExpiresAt *time.Time `json:"-"`

	// Operator-path idempotency; nullable so customer-path rows skip the index
	IdempotencyKey *string `gorm:"size:200;uniqueIndex" json:"-"`

	// Historical pointers
	ReservationID     *string `gorm:"type:uuid" json:"reservation_id,omitempty"`
	RescheduledFromID *string `gorm:"type:uuid" json:"rescheduled_from_id,omitempty"`

	CanceledAt   *time.Time `json:"canceled_at,omitempty"`
	CanceledByID *string    `gorm:"type:uuid" json:"canceled_by_id,omitempty"`

	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
}

// BeforeCreate hook to generate UUID
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

// IsValidAppointmentStatus checks if the status is valid
func IsValidAppointmentStatus(status string) bool {
	switch status {
	case AppointmentStatusConfirmed, AppointmentStatusCanceled,
		AppointmentStatusCompleted, AppointmentStatusNoShow:
		return true
	}
	return false
}

// IsCancellable checks if the appointment can be cancelled
func (a *Appointment) IsCancellable() bool {
	return a.Status == AppointmentStatusConfirmed
}

// CountsTowardCapacity reports whether the appointment occupies capacity
func (a *Appointment) CountsTowardCapacity() bool {
	return a.Status == AppointmentStatusConfirmed && !a.DeletedAt.Valid
}

// DurationMinutes returns the appointment length in minutes
func (a *Appointment) DurationMinutes() int {
	return int(a.SlotEnd.Sub(a.SlotStart).Minutes())
}

// TimeSlot is a candidate appointment interval offered to bookers, with the
// remaining capacity at generation time.
type TimeSlot struct {
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	Available          bool      `json:"available"`
	Capacity           int       `json:"capacity"`       // remaining
	TotalCapacity      int       `json:"total_capacity"` // service.maxSimultaneousBookings
	CapacityPercentage int       `json:"capacity_percentage"` // 0-100 used
	Reason             string    `json:"reason,omitempty"`
}
