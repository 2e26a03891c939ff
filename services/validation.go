package services

import (
	"time"

	"rivo_booking_go/models"
)

// Booking-time validation codes
const (
	CodePastTime           = "PAST_TIME"
	CodeBeyondAdvanceLimit = "BEYOND_ADVANCE_BOOKING_LIMIT"
	CodeBelowMinAdvance    = "BELOW_MIN_ADVANCE_BOOKING"
	CodeOffTimeConflict    = "OFF_TIME_CONFLICT"
)

// PastTimeGrace tolerates clock skew and form latency on the past-time check
const PastTimeGrace = 5 * time.Minute

// ValidationError is a booking-time rejection the caller can act on
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BookingTimeInput parameterizes ValidateBookingTime. The same function
// serves customer booking, operator create and reschedule; operator paths set
// SkipHorizonCheck, which waives both customer-only limits (horizon and lead
// time).
type BookingTimeInput struct {
	Config       *models.TenantConfig
	SlotStart    time.Time
	SlotEnd      time.Time
	BufferBefore time.Duration
	BufferAfter  time.Duration

	SkipHorizonCheck bool
	SkipPastCheck    bool

	// Now defaults to time.Now; tests pin it
	Now time.Time

	// OffTimes are computed from Config when nil
	OffTimes []OffTimeInterval
}

// ValidateBookingTime runs the sequential booking-time checks; the first
// failure wins
func ValidateBookingTime(in BookingTimeInput) error {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if !in.SkipPastCheck && in.SlotStart.Before(now.Add(-PastTimeGrace)) {
		return &ValidationError{Code: CodePastTime, Message: "requested time is in the past"}
	}

	if !in.SkipHorizonCheck {
		if days := in.Config.BookingLimits.AdvanceBookingDays; days > 0 {
			if in.SlotStart.After(now.AddDate(0, 0, days)) {
				return &ValidationError{Code: CodeBeyondAdvanceLimit, Message: "requested time is beyond the advance booking limit"}
			}
		}
		if minutes := in.Config.BookingLimits.MinAdvanceBookingMinutes; minutes > 0 {
			if in.SlotStart.Before(now.Add(time.Duration(minutes) * time.Minute)) {
				return &ValidationError{Code: CodeBelowMinAdvance, Message: "requested time is below the minimum advance booking lead time"}
			}
		}
	}

	effStart := in.SlotStart.Add(-in.BufferBefore)
	effEnd := in.SlotEnd.Add(in.BufferAfter)

	offTimes := in.OffTimes
	if offTimes == nil {
		computed, err := ComputeOffTimes(in.Config, effStart, effEnd)
		if err != nil {
			return err
		}
		offTimes = computed
	}

	if intersecting := IntersectingOffTimes(effStart, effEnd, offTimes); len(intersecting) > 0 {
		return &ValidationError{Code: CodeOffTimeConflict, Message: offTimeConflictMessage(intersecting[0])}
	}

	return nil
}

// ValidateAndSnapBookingTime snaps both endpoints to the grain, then
// validates. It returns the snapped interval on success.
func ValidateAndSnapBookingTime(in BookingTimeInput) (time.Time, time.Time, error) {
	in.SlotStart = SnapToGrain(in.SlotStart)
	in.SlotEnd = SnapToGrain(in.SlotEnd)
	if err := ValidateBookingTime(in); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return in.SlotStart, in.SlotEnd, nil
}
