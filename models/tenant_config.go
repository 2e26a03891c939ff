package models

import "time"

// TenantConfig is the engine-facing view of a tenant's booking configuration.
// It is assembled from persisted rows (or supplied by the config
// collaborator) and treated as the authoritative source for capacity, hours
// and limits during slot generation and admission.
type TenantConfig struct {
	BusinessName string
	Timezone     string // IANA zone name
	Currency     string

	Categories []CategoryConfig

	Availability           []DayAvailability
	AvailabilityExceptions []ExceptionConfig

	TimeSlotDurationMinutes int // stride for offered slot starts

	BookingLimits       BookingLimits
	BookingRequirements BookingRequirements
	CancellationPolicy  CancellationPolicy
}

// CategoryConfig is an ordered group of services
type CategoryConfig struct {
	ID          string
	Name        string
	Description string
	Services    []ServiceConfig
}

// ServiceConfig describes one bookable service
type ServiceConfig struct {
	ID                      string
	Name                    string
	DurationMinutes         int
	PriceCents              int
	MaxSimultaneousBookings int // 0 means fall back to BookingLimits default
	BufferBeforeMinutes     int
	BufferAfterMinutes      int
	Enabled                 bool
}

// TimeRange is an open interval of a working day, "HH:MM" in tenant timezone
type TimeRange struct {
	Open  string
	Close string
}

// DayAvailability is the weekly template entry for one weekday
type DayAvailability struct {
	Day     int // 0=Sunday...6=Saturday
	Enabled bool
	Slots   []TimeRange
}

// ExceptionConfig overrides the template for a single civil date
type ExceptionConfig struct {
	Date   string // "2006-01-02"
	Closed bool
	Open   string
	Close  string
	Reason string
}

// BookingLimits bounds how far ahead and how soon customers may book
type BookingLimits struct {
	AdvanceBookingDays       int
	MinAdvanceBookingMinutes int
	MaxSimultaneousBookings  int // default capacity when a service sets none
}

// BookingRequirements gates the guest contact form
type BookingRequirements struct {
	RequireName  bool
	RequireEmail bool
	RequirePhone bool
}

// CancellationPolicy unlocks the guest manage link
type CancellationPolicy struct {
	AllowCancellation bool
}

// Location resolves the tenant timezone, falling back to UTC
func (c *TenantConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ServiceByID finds a service across all categories. The returned copy has
// the capacity fallback already applied.
func (c *TenantConfig) ServiceByID(id string) *ServiceConfig {
	for _, cat := range c.Categories {
		for _, svc := range cat.Services {
			if svc.ID == id {
				resolved := svc
				if resolved.MaxSimultaneousBookings <= 0 {
					resolved.MaxSimultaneousBookings = c.BookingLimits.MaxSimultaneousBookings
				}
				if resolved.MaxSimultaneousBookings <= 0 {
					resolved.MaxSimultaneousBookings = 1
				}
				return &resolved
			}
		}
	}
	return nil
}

// DayTemplate returns the weekly template entry for a weekday, or nil
func (c *TenantConfig) DayTemplate(weekday int) *DayAvailability {
	for i := range c.Availability {
		if c.Availability[i].Day == weekday {
			return &c.Availability[i]
		}
	}
	return nil
}

// ExceptionFor returns the exception for a civil date ("2006-01-02"), or nil
func (c *TenantConfig) ExceptionFor(date string) *ExceptionConfig {
	for i := range c.AvailabilityExceptions {
		if c.AvailabilityExceptions[i].Date == date {
			return &c.AvailabilityExceptions[i]
		}
	}
	return nil
}

// TimeSlotDuration returns the stride between offered slot starts
func (c *TenantConfig) TimeSlotDuration() time.Duration {
	minutes := c.TimeSlotDurationMinutes
	if minutes <= 0 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}
