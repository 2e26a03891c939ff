package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Engine errors surfaced verbatim to callers. Infrastructure failures are
// wrapped and propagated separately.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrSlotUnavailable    = errors.New("slot is no longer available")
	ErrNoCapacity         = errors.New("no capacity for the requested time")
	ErrReservationInvalid = errors.New("reservation unknown or expired")
	ErrNotFound           = errors.New("appointment not found")
	ErrAlreadyCanceled    = errors.New("appointment already canceled")
)

// ConflictError signals an optimistic-version mismatch. It carries the
// current version so the caller can reload and retry.
type ConflictError struct {
	CurrentVersion int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: current version is %d", e.CurrentVersion)
}

// isUniqueViolation detects a unique-constraint failure across the supported
// dialects (sqlite, libsql, postgres)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
