package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant status constants
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusDeleted   = "deleted"
)

// Subdomains that can never be claimed by a tenant
var reservedSubdomains = map[string]bool{
	"www":     true,
	"api":     true,
	"app":     true,
	"admin":   true,
	"mail":    true,
	"status":  true,
	"help":    true,
	"booking": true,
	"static":  true,
}

// Tenant represents a business account. All child entities (categories,
// services, availability, reservations, appointments, audit logs) are owned
// by exactly one tenant.
type Tenant struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Subdomain string `gorm:"uniqueIndex;not null" json:"subdomain"`
	Name      string `gorm:"size:200;not null" json:"name"`
	Timezone  string `gorm:"size:64;not null;default:'UTC'" json:"timezone"` // IANA zone name
	Currency  string `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	Status    string `gorm:"size:20;default:'active';index" json:"status"`

	// Booking settings (see TenantConfig for the engine-facing view)
	TimeSlotDurationMinutes  int  `gorm:"not null;default:30" json:"time_slot_duration_minutes"`
	AdvanceBookingDays       int  `gorm:"not null;default:30" json:"advance_booking_days"`
	MinAdvanceBookingMinutes int  `gorm:"not null;default:60" json:"min_advance_booking_minutes"`
	MaxSimultaneousBookings  int  `gorm:"not null;default:1" json:"max_simultaneous_bookings"`
	RequireName              bool `gorm:"default:true" json:"require_name"`
	RequireEmail             bool `gorm:"default:true" json:"require_email"`
	RequirePhone             bool `gorm:"default:false" json:"require_phone"`
	AllowCancellation        bool `gorm:"default:true" json:"allow_cancellation"`
}

// BeforeCreate hook to generate UUID and subdomain
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Subdomain == "" {
		t.Subdomain = generateSubdomain(tx, t.Name)
	}
	return nil
}

// TableName specifies the table name for Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// IsValidSubdomain reports whether s is a usable subdomain: lowercase
// alphanumeric plus hyphen, 3-63 characters, no leading/trailing hyphen, and
// not a reserved name.
func IsValidSubdomain(s string) bool {
	if len(s) < 3 || len(s) > 63 {
		return false
	}
	if reservedSubdomains[s] {
		return false
	}
	return subdomainPattern.MatchString(s)
}

// generateSubdomain creates a URL-friendly subdomain from the tenant name,
// appending a numeric suffix on collision
func generateSubdomain(tx *gorm.DB, name string) string {
	sub := strings.ToLower(name)
	sub = strings.ReplaceAll(sub, " ", "-")

	// Strip everything that is not lowercase alphanumeric or hyphen
	reg := regexp.MustCompile(`[^a-z0-9-]`)
	sub = reg.ReplaceAllString(sub, "")

	// Collapse consecutive hyphens
	reg = regexp.MustCompile(`-+`)
	sub = reg.ReplaceAllString(sub, "-")

	sub = strings.Trim(sub, "-")

	if len(sub) > 63 {
		sub = sub[:63]
		sub = strings.TrimRight(sub, "-")
	}
	if len(sub) < 3 || reservedSubdomains[sub] {
		sub = sub + "-booking"
	}

	// Ensure uniqueness with a counter suffix
	originalSub := sub
	counter := 1
	for {
		var count int64
		tx.Model(&Tenant{}).Where("subdomain = ?", sub).Count(&count)
		if count == 0 {
			break
		}
		sub = originalSub + "-" + strconv.Itoa(counter)
		counter++
	}

	return sub
}
