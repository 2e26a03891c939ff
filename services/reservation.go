package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"rivo_booking_go/models"

	"gorm.io/gorm"
)

// Reservation TTL policy
const (
	MinReservationTTL     = 5 * time.Minute
	MaxReservationTTL     = 30 * time.Minute
	DefaultReservationTTL = 15 * time.Minute

	// MaxReservationLifetime is the hard ceiling on a hold's total life,
	// extensions included, measured from creation
	MaxReservationLifetime = 60 * time.Minute
)

// CreateReservationInput carries everything needed to place a hold.
// MaxSimultaneousBookings comes from the authoritative tenant config so slot
// generation and admission can never drift apart.
type CreateReservationInput struct {
	TenantID                string
	ServiceID               string
	SlotStart               time.Time
	SlotEnd                 time.Time
	IdempotencyKey          string
	TTL                     time.Duration // 0 means DefaultReservationTTL
	MaxSimultaneousBookings int
}

// CreateReservation places a short-lived capacity hold on a slot. Concurrent
// attempts on the same logical slot are serialized by the per-slot lock; the
// capacity count runs inside the same transaction. Replaying a live
// idempotency key returns the original hold.
func CreateReservation(db *gorm.DB, in CreateReservationInput) (*models.Reservation, error) {
	if in.IdempotencyKey == "" || in.TenantID == "" || in.ServiceID == "" {
		return nil, fmt.Errorf("%w: tenant, service and idempotency key are required", ErrInvalidInput)
	}
	if !in.SlotEnd.After(in.SlotStart) {
		return nil, fmt.Errorf("%w: slot end must be after slot start", ErrInvalidInput)
	}
	if !AlignedToGrain(in.SlotStart) || !AlignedToGrain(in.SlotEnd) {
		return nil, fmt.Errorf("%w: slot times must be aligned to the %v grain", ErrInvalidInput, Grain)
	}
	if in.MaxSimultaneousBookings < 1 {
		return nil, fmt.Errorf("%w: capacity must be at least 1", ErrInvalidInput)
	}

	ttl := in.TTL
	if ttl == 0 {
		ttl = DefaultReservationTTL
	}
	if ttl < MinReservationTTL || ttl > MaxReservationTTL {
		return nil, fmt.Errorf("%w: ttl must be between %v and %v", ErrInvalidInput, MinReservationTTL, MaxReservationTTL)
	}

	now := time.Now().UTC()

	// Idempotent replay: a live hold with this key is the caller's earlier
	// attempt
	if existing, err := findLiveReservationByKey(db, in.IdempotencyKey, now); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	key := SlotLockKey(in.TenantID, in.ServiceID, in.SlotStart)
	var reservation *models.Reservation

	err := WithSlotLock(db, key, func(tx *gorm.DB) error {
		// The key is only unique while its hold is alive. An expired row may
		// still occupy the index ahead of the sweeper; clear it so the key is
		// reusable immediately.
		if err := tx.Where("idempotency_key = ? AND expires_at <= ?", in.IdempotencyKey, now).
			Delete(&models.Reservation{}).Error; err != nil {
			return fmt.Errorf("failed to clear expired reservation: %w", err)
		}

		// Replay re-check under the lock: a concurrent duplicate may have
		// committed after the unlocked pre-check, and its hold would
		// otherwise fail the capacity count below
		if existing, err := findLiveReservationByKey(tx, in.IdempotencyKey, now); err != nil {
			return err
		} else if existing != nil {
			reservation = existing
			return nil
		}

		used, err := countSlotUsage(tx, in.TenantID, in.ServiceID, in.SlotStart, in.SlotEnd, now)
		if err != nil {
			return err
		}
		if used >= int64(in.MaxSimultaneousBookings) {
			return ErrSlotUnavailable
		}

		hold := &models.Reservation{
			TenantID:       in.TenantID,
			ServiceID:      in.ServiceID,
			SlotStart:      in.SlotStart.UTC(),
			SlotEnd:        in.SlotEnd.UTC(),
			IdempotencyKey: in.IdempotencyKey,
			ExpiresAt:      now.Add(ttl),
		}
		// The insert sits behind a savepoint: on Postgres a failed statement
		// aborts the rest of the transaction, and the duplicate-key recovery
		// below must still be able to read.
		if err := tx.SavePoint("reservation_insert").Error; err != nil {
			return fmt.Errorf("failed to create savepoint: %w", err)
		}
		if err := tx.Create(hold).Error; err != nil {
			if isUniqueViolation(err) {
				if rbErr := tx.RollbackTo("reservation_insert").Error; rbErr != nil {
					return fmt.Errorf("failed to roll back to savepoint: %w", rbErr)
				}
				// A concurrent duplicate of the same key won the insert;
				// return its hold
				existing, lookupErr := findLiveReservationByKey(tx, in.IdempotencyKey, now)
				if lookupErr != nil {
					return lookupErr
				}
				if existing != nil {
					reservation = existing
					return nil
				}
				// The winner expired within the race window
				return ErrSlotUnavailable
			}
			return fmt.Errorf("failed to create reservation: %w", err)
		}

		reservation = hold
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

// findLiveReservationByKey looks up a non-expired hold by idempotency key
func findLiveReservationByKey(db *gorm.DB, key string, now time.Time) (*models.Reservation, error) {
	var hold models.Reservation
	err := db.Where("idempotency_key = ? AND expires_at > ?", key, now).First(&hold).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up reservation: %w", err)
	}
	return &hold, nil
}

// countSlotUsage counts confirmed appointments plus live reservations
// overlapping [start, end) for one (tenant, service). Half-open overlap:
// existing.start < end AND existing.end > start.
func countSlotUsage(tx *gorm.DB, tenantID, serviceID string, start, end, now time.Time) (int64, error) {
	var appointments int64
	err := tx.Model(&models.Appointment{}).
		Where("tenant_id = ? AND service_id = ? AND status = ?", tenantID, serviceID, models.AppointmentStatusConfirmed).
		Where("slot_start < ? AND slot_end > ?", end, start).
		Count(&appointments).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	var holds int64
	err = tx.Model(&models.Reservation{}).
		Where("tenant_id = ? AND service_id = ? AND expires_at > ?", tenantID, serviceID, now).
		Where("slot_start < ? AND slot_end > ?", end, start).
		Count(&holds).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	return appointments + holds, nil
}

// ExtendReservation pushes a live hold's expiry out by additional minutes.
// The total lifetime may never exceed MaxReservationLifetime from creation.
func ExtendReservation(db *gorm.DB, id string, additional time.Duration) (*models.Reservation, error) {
	if additional <= 0 {
		return nil, fmt.Errorf("%w: extension must be positive", ErrInvalidInput)
	}

	var out *models.Reservation
	err := db.Transaction(func(tx *gorm.DB) error {
		var hold models.Reservation
		if err := lockedQuery(tx).First(&hold, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationInvalid
			}
			return fmt.Errorf("failed to look up reservation: %w", err)
		}
		if hold.IsExpired(time.Now().UTC()) {
			return ErrReservationInvalid
		}

		newExpiry := hold.ExpiresAt.Add(additional)
		ceiling := hold.CreatedAt.Add(MaxReservationLifetime)
		if newExpiry.After(ceiling) {
			return fmt.Errorf("%w: extension exceeds the %v maximum lifetime", ErrInvalidInput, MaxReservationLifetime)
		}

		// Conditional write: a concurrent extend that moved the expiry after
		// our read matches zero rows, so two racers can never jointly exceed
		// the ceiling
		result := tx.Model(&models.Reservation{}).
			Where("id = ? AND expires_at = ?", id, hold.ExpiresAt).
			Update("expires_at", newExpiry)
		if result.Error != nil {
			return fmt.Errorf("failed to extend reservation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrReservationInvalid
		}

		hold.ExpiresAt = newExpiry
		out = &hold
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteReservation removes a hold unconditionally, releasing its capacity
func DeleteReservation(db *gorm.DB, id string) error {
	return db.Delete(&models.Reservation{}, "id = ?", id).Error
}

// GetAvailableCapacity returns the remaining capacity of an interval, using
// the same count the admission path uses
func GetAvailableCapacity(db *gorm.DB, tenantID, serviceID string, start, end time.Time, maxSimultaneousBookings int) (int, error) {
	used, err := countSlotUsage(db, tenantID, serviceID, start, end, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	remaining := maxSimultaneousBookings - int(used)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CleanupExpiredReservations deletes every expired hold and returns the
// count. Safe to run at any frequency; skipped runs only consume space.
func CleanupExpiredReservations(db *gorm.DB) (int64, error) {
	result := db.Where("expires_at <= ?", time.Now().UTC()).Delete(&models.Reservation{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clean up reservations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ReservationHealth summarizes the reservation table for monitoring.
// Expired > 100 means the sweeper is lagging; an oldest live hold beyond 30
// minutes points at runaway extensions.
type ReservationHealth struct {
	Active        int64         `json:"active"`
	Expired       int64         `json:"expired"`
	MedianTTL     time.Duration `json:"median_ttl"`
	OldestLiveAge time.Duration `json:"oldest_live_age"`
}

// GetReservationHealth computes the health probe values
func GetReservationHealth(db *gorm.DB) (*ReservationHealth, error) {
	now := time.Now().UTC()
	health := &ReservationHealth{}

	if err := db.Model(&models.Reservation{}).Where("expires_at > ?", now).Count(&health.Active).Error; err != nil {
		return nil, fmt.Errorf("failed to count active reservations: %w", err)
	}
	if err := db.Model(&models.Reservation{}).Where("expires_at <= ?", now).Count(&health.Expired).Error; err != nil {
		return nil, fmt.Errorf("failed to count expired reservations: %w", err)
	}

	var live []models.Reservation
	if err := db.Where("expires_at > ?", now).Find(&live).Error; err != nil {
		return nil, fmt.Errorf("failed to load live reservations: %w", err)
	}
	if len(live) == 0 {
		return health, nil
	}

	ttls := make([]time.Duration, 0, len(live))
	oldest := live[0].CreatedAt
	for _, r := range live {
		ttls = append(ttls, r.ExpiresAt.Sub(r.CreatedAt))
		if r.CreatedAt.Before(oldest) {
			oldest = r.CreatedAt
		}
	}
	sort.Slice(ttls, func(i, j int) bool { return ttls[i] < ttls[j] })
	health.MedianTTL = ttls[len(ttls)/2]
	health.OldestLiveAge = now.Sub(oldest)

	return health, nil
}
