package services

import (
	"errors"
	"fmt"
	"time"

	"rivo_booking_go/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GuestContact is the embedded guest variant of the customer sum type
type GuestContact struct {
	Name  string
	Email string
	Phone string
}

// CommitReservationInput converts a hold into an appointment
type CommitReservationInput struct {
	ReservationID string
	CustomerID    *string
	Guest         *GuestContact
	ActorID       *string

	// IssueManageToken mints a guest manage token when the tenant's
	// cancellation policy allows it
	IssueManageToken bool
}

// CommitResult carries the appointment plus the one-time manage token
type CommitResult struct {
	Appointment *models.Appointment
	ManageToken string
}

// CommitReservation atomically turns a live hold into a confirmed
// appointment: validate, insert with a fresh booking code, audit, delete the
// hold. Any failure rolls the whole transaction back.
func CommitReservation(db *gorm.DB, in CommitReservationInput) (*CommitResult, error) {
	if in.CustomerID == nil && in.Guest == nil {
		return nil, fmt.Errorf("%w: a customer id or guest contact is required", ErrInvalidInput)
	}

	result := &CommitResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		var hold models.Reservation
		if err := lockedQuery(tx).First(&hold, "id = ?", in.ReservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationInvalid
			}
			return fmt.Errorf("failed to look up reservation: %w", err)
		}
		if hold.IsExpired(time.Now().UTC()) {
			return ErrReservationInvalid
		}

		code, err := GenerateBookingCode(tx)
		if err != nil {
			return err
		}

		apt := &models.Appointment{
			TenantID:      hold.TenantID,
			ServiceID:     hold.ServiceID,
			BookingCode:   code,
			SlotStart:     hold.SlotStart,
			SlotEnd:       hold.SlotEnd,
			Status:        models.AppointmentStatusConfirmed,
			Version:       1,
			CustomerID:    in.CustomerID,
			ReservationID: &hold.ID,
		}
		if in.Guest != nil {
			apt.GuestName = ptrIfNotEmpty(in.Guest.Name)
			apt.GuestEmail = ptrIfNotEmpty(in.Guest.Email)
			apt.GuestPhone = ptrIfNotEmpty(in.Guest.Phone)
		}

		if in.IssueManageToken && in.Guest != nil {
			token, err := NewManageToken()
			if err != nil {
				return err
			}
			hash, err := HashManageToken(token)
			if err != nil {
				return err
			}
			expiry := hold.SlotEnd.Add(24 * time.Hour)
			apt.GuestTokenHash = &hash
			apt.GuestTokenExpiresAt = &expiry
			result.ManageToken = token
		}

		if err := tx.Create(apt).Error; err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		if err := RecordAuditEvent(tx, apt.TenantID, apt.ID, models.AuditActionCreated, in.ActorID, nil, apt); err != nil {
			return err
		}

		if err := tx.Delete(&models.Reservation{}, "id = ?", hold.ID).Error; err != nil {
			return fmt.Errorf("failed to release reservation: %w", err)
		}

		result.Appointment = apt
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CreateManualAppointmentInput is the operator path: no hold, immediate
// capacity check under the slot lock, idempotent on the operator's key
type CreateManualAppointmentInput struct {
	TenantID       string
	ServiceID      string
	SlotStart      time.Time
	Config         *models.TenantConfig
	CustomerID     *string
	Guest          *GuestContact
	ActorID        *string
	IdempotencyKey string
}

// CreateManualAppointment books directly on behalf of an operator. Horizon
// and lead-time limits do not apply; hours and capacity still do.
func CreateManualAppointment(db *gorm.DB, in CreateManualAppointmentInput) (*models.Appointment, error) {
	if in.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", ErrInvalidInput)
	}
	svc := in.Config.ServiceByID(in.ServiceID)
	if svc == nil {
		return nil, fmt.Errorf("%w: unknown service %s", ErrInvalidInput, in.ServiceID)
	}
	if !AlignedToGrain(in.SlotStart) {
		return nil, fmt.Errorf("%w: slot start must be aligned to the %v grain", ErrInvalidInput, Grain)
	}

	slotStart := in.SlotStart.UTC()
	slotEnd := slotStart.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	// Idempotent replay
	if existing, err := findAppointmentByIdempotencyKey(db, in.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if err := ValidateBookingTime(BookingTimeInput{
		Config:           in.Config,
		SlotStart:        slotStart,
		SlotEnd:          slotEnd,
		BufferBefore:     time.Duration(svc.BufferBeforeMinutes) * time.Minute,
		BufferAfter:      time.Duration(svc.BufferAfterMinutes) * time.Minute,
		SkipHorizonCheck: true,
	}); err != nil {
		return nil, err
	}

	key := SlotLockKey(in.TenantID, in.ServiceID, slotStart)
	var apt *models.Appointment

	err := WithSlotLock(db, key, func(tx *gorm.DB) error {
		used, err := countSlotUsage(tx, in.TenantID, in.ServiceID, slotStart, slotEnd, time.Now().UTC())
		if err != nil {
			return err
		}
		if used >= int64(svc.MaxSimultaneousBookings) {
			return ErrNoCapacity
		}

		code, err := GenerateBookingCode(tx)
		if err != nil {
			return err
		}

		created := &models.Appointment{
			TenantID:       in.TenantID,
			ServiceID:      in.ServiceID,
			BookingCode:    code,
			SlotStart:      slotStart,
			SlotEnd:        slotEnd,
			Status:         models.AppointmentStatusConfirmed,
			Version:        1,
			CustomerID:     in.CustomerID,
			IdempotencyKey: &in.IdempotencyKey,
		}
		if in.Guest != nil {
			created.GuestName = ptrIfNotEmpty(in.Guest.Name)
			created.GuestEmail = ptrIfNotEmpty(in.Guest.Email)
			created.GuestPhone = ptrIfNotEmpty(in.Guest.Phone)
		}

		// Savepoint so the duplicate-key recovery can still read on Postgres,
		// where a failed statement aborts the rest of the transaction
		if err := tx.SavePoint("appointment_insert").Error; err != nil {
			return fmt.Errorf("failed to create savepoint: %w", err)
		}
		if err := tx.Create(created).Error; err != nil {
			if isUniqueViolation(err) {
				if rbErr := tx.RollbackTo("appointment_insert").Error; rbErr != nil {
					return fmt.Errorf("failed to roll back to savepoint: %w", rbErr)
				}
				existing, lookupErr := findAppointmentByIdempotencyKey(tx, in.IdempotencyKey)
				if lookupErr != nil {
					return lookupErr
				}
				if existing != nil {
					apt = existing
					return nil
				}
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		if err := RecordAuditEvent(tx, created.TenantID, created.ID, models.AuditActionCreated, in.ActorID, nil, created); err != nil {
			return err
		}

		apt = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return apt, nil
}

// findAppointmentByIdempotencyKey looks up a prior operator create
func findAppointmentByIdempotencyKey(db *gorm.DB, key string) (*models.Appointment, error) {
	var apt models.Appointment
	err := db.Unscoped().Where("idempotency_key = ?", key).First(&apt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up appointment: %w", err)
	}
	return &apt, nil
}

// UpdateAppointmentInput reschedules or re-statuses an appointment under
// optimistic locking
type UpdateAppointmentInput struct {
	ID              string
	ExpectedVersion int
	NewSlotStart    *time.Time
	NewSlotEnd      *time.Time
	NewServiceID    *string
	NewStatus       *string
	ActorID         *string

	// Config is required when time or service changes
	Config *models.TenantConfig

	// SkipHorizonCheck waives the customer-only limits for operator
	// reschedules
	SkipHorizonCheck bool
}

// UpdateAppointment applies a versioned update: pessimistic row lock,
// version compare, capacity recheck excluding the row's own occupancy, then
// a conditional write that bumps the version. Zero rows affected means a
// concurrent writer got there first.
func UpdateAppointment(db *gorm.DB, in UpdateAppointmentInput) (*models.Appointment, error) {
	var updated *models.Appointment

	err := db.Transaction(func(tx *gorm.DB) error {
		var apt models.Appointment
		if err := lockedQuery(tx).Unscoped().First(&apt, "id = ?", in.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to look up appointment: %w", err)
		}
		if apt.Status == models.AppointmentStatusCanceled {
			return ErrAlreadyCanceled
		}
		if apt.Version != in.ExpectedVersion {
			return &ConflictError{CurrentVersion: apt.Version}
		}

		before := apt

		newStart := apt.SlotStart
		newEnd := apt.SlotEnd
		newServiceID := apt.ServiceID
		if in.NewSlotStart != nil {
			newStart = in.NewSlotStart.UTC()
		}
		if in.NewSlotEnd != nil {
			newEnd = in.NewSlotEnd.UTC()
		}
		if in.NewServiceID != nil {
			newServiceID = *in.NewServiceID
		}

		timeChanged := !newStart.Equal(apt.SlotStart) || !newEnd.Equal(apt.SlotEnd)
		serviceChanged := newServiceID != apt.ServiceID

		updates := map[string]interface{}{
			"version": gorm.Expr("version + 1"),
		}

		if timeChanged || serviceChanged {
			if in.Config == nil {
				return fmt.Errorf("%w: tenant config is required to move an appointment", ErrInvalidInput)
			}
			svc := in.Config.ServiceByID(newServiceID)
			if svc == nil {
				return fmt.Errorf("%w: unknown service %s", ErrInvalidInput, newServiceID)
			}
			if !AlignedToGrain(newStart) || !AlignedToGrain(newEnd) {
				return fmt.Errorf("%w: slot times must be aligned to the %v grain", ErrInvalidInput, Grain)
			}
			if !newEnd.Equal(newStart.Add(time.Duration(svc.DurationMinutes) * time.Minute)) {
				return fmt.Errorf("%w: slot end must equal slot start plus the service duration", ErrInvalidInput)
			}

			if err := ValidateBookingTime(BookingTimeInput{
				Config:           in.Config,
				SlotStart:        newStart,
				SlotEnd:          newEnd,
				BufferBefore:     time.Duration(svc.BufferBeforeMinutes) * time.Minute,
				BufferAfter:      time.Duration(svc.BufferAfterMinutes) * time.Minute,
				SkipHorizonCheck: in.SkipHorizonCheck,
			}); err != nil {
				return err
			}

			// Capacity check excluding this appointment's current occupancy
			used, err := countSlotUsageExcluding(tx, apt.TenantID, newServiceID, newStart, newEnd, time.Now().UTC(), apt.ID)
			if err != nil {
				return err
			}
			if used >= int64(svc.MaxSimultaneousBookings) {
				return ErrNoCapacity
			}

			updates["slot_start"] = newStart
			updates["slot_end"] = newEnd
			updates["service_id"] = newServiceID
		}

		if in.NewStatus != nil {
			if !models.IsValidAppointmentStatus(*in.NewStatus) {
				return fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *in.NewStatus)
			}
			// Cancellation soft-deletes the row and carries its own audit
			// action; it only goes through CancelAppointment
			if *in.NewStatus == models.AppointmentStatusCanceled {
				return fmt.Errorf("%w: cancellation goes through the cancel operation", ErrInvalidInput)
			}
			updates["status"] = *in.NewStatus
		}

		result := tx.Model(&models.Appointment{}).
			Where("id = ? AND version = ?", apt.ID, in.ExpectedVersion).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update appointment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			var current models.Appointment
			if err := tx.Unscoped().First(&current, "id = ?", apt.ID).Error; err != nil {
				return fmt.Errorf("failed to reload appointment: %w", err)
			}
			return &ConflictError{CurrentVersion: current.Version}
		}

		var after models.Appointment
		if err := tx.Unscoped().First(&after, "id = ?", apt.ID).Error; err != nil {
			return fmt.Errorf("failed to reload appointment: %w", err)
		}

		if err := RecordAuditEvent(tx, apt.TenantID, apt.ID, models.AuditActionModified, in.ActorID, before, after); err != nil {
			return err
		}

		updated = &after
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// CancelAppointment marks an appointment canceled and soft-deletes it,
// freeing its capacity immediately
func CancelAppointment(db *gorm.DB, id string, actorID *string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var apt models.Appointment
		if err := lockedQuery(tx).Unscoped().First(&apt, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to look up appointment: %w", err)
		}
		if apt.Status == models.AppointmentStatusCanceled {
			return ErrAlreadyCanceled
		}

		before := apt
		now := time.Now().UTC()

		err := tx.Unscoped().Model(&models.Appointment{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":         models.AppointmentStatusCanceled,
				"canceled_at":    now,
				"canceled_by_id": actorID,
				"deleted_at":     now,
				"version":        gorm.Expr("version + 1"),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to cancel appointment: %w", err)
		}

		var after models.Appointment
		if err := tx.Unscoped().First(&after, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to reload appointment: %w", err)
		}

		return RecordAuditEvent(tx, apt.TenantID, apt.ID, models.AuditActionCanceled, actorID, before, after)
	})
}

// CompleteAppointment marks a confirmed appointment completed
func CompleteAppointment(db *gorm.DB, id string, actorID *string) error {
	return transitionAppointment(db, id, actorID, models.AppointmentStatusCompleted, models.AuditActionCompleted)
}

// MarkNoShow marks a confirmed appointment as a no-show
func MarkNoShow(db *gorm.DB, id string, actorID *string) error {
	return transitionAppointment(db, id, actorID, models.AppointmentStatusNoShow, models.AuditActionNoShow)
}

// transitionAppointment moves a confirmed appointment to a terminal status
func transitionAppointment(db *gorm.DB, id string, actorID *string, status string, action models.AuditAction) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var apt models.Appointment
		if err := lockedQuery(tx).Unscoped().First(&apt, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to look up appointment: %w", err)
		}
		if apt.Status == models.AppointmentStatusCanceled {
			return ErrAlreadyCanceled
		}
		if apt.Status != models.AppointmentStatusConfirmed {
			return fmt.Errorf("%w: appointment is already %s", ErrInvalidInput, apt.Status)
		}

		before := apt

		err := tx.Model(&models.Appointment{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":  status,
				"version": gorm.Expr("version + 1"),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update appointment status: %w", err)
		}

		var after models.Appointment
		if err := tx.Unscoped().First(&after, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to reload appointment: %w", err)
		}

		return RecordAuditEvent(tx, apt.TenantID, apt.ID, action, actorID, before, after)
	})
}

// GetAppointmentByID fetches an appointment, canceled ones included
func GetAppointmentByID(db *gorm.DB, id string) (*models.Appointment, error) {
	var apt models.Appointment
	if err := db.Unscoped().First(&apt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up appointment: %w", err)
	}
	return &apt, nil
}

// GetAppointmentByBookingCode fetches a tenant's appointment by its human
// booking code
func GetAppointmentByBookingCode(db *gorm.DB, tenantID, code string) (*models.Appointment, error) {
	var apt models.Appointment
	err := db.Unscoped().Where("tenant_id = ? AND booking_code = ?", tenantID, code).First(&apt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up appointment: %w", err)
	}
	return &apt, nil
}

// AppointmentFilters narrows ListAppointments
type AppointmentFilters struct {
	ServiceID       string
	Status          string
	From            time.Time
	To              time.Time
	IncludeCanceled bool
}

// ListAppointments fetches a tenant's appointments ordered by start time
func ListAppointments(db *gorm.DB, tenantID string, filters AppointmentFilters) ([]models.Appointment, error) {
	query := db.Model(&models.Appointment{})
	if filters.IncludeCanceled {
		query = query.Unscoped()
	}
	query = query.Where("tenant_id = ?", tenantID)

	if filters.ServiceID != "" {
		query = query.Where("service_id = ?", filters.ServiceID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if !filters.From.IsZero() {
		query = query.Where("slot_end > ?", filters.From)
	}
	if !filters.To.IsZero() {
		query = query.Where("slot_start < ?", filters.To)
	}

	var appointments []models.Appointment
	err := query.Order("slot_start asc").Find(&appointments).Error
	return appointments, err
}

// countSlotUsageExcluding is countSlotUsage minus one appointment's own
// occupancy, for reschedule capacity checks
func countSlotUsageExcluding(tx *gorm.DB, tenantID, serviceID string, start, end, now time.Time, excludeID string) (int64, error) {
	var appointments int64
	err := tx.Model(&models.Appointment{}).
		Where("tenant_id = ? AND service_id = ? AND status = ? AND id != ?", tenantID, serviceID, models.AppointmentStatusConfirmed, excludeID).
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

// lockedQuery applies a pessimistic row lock where the dialect supports it;
// sqlite transactions are single-writer already
func lockedQuery(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
