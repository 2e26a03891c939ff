package services

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"rivo_booking_go/models"

	"gorm.io/gorm"
)

const (
	bookingCodePrefix   = "RIVO"
	bookingCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	bookingCodeAttempts = 5
)

// randomBookingCode draws 9 characters uniformly from the 36-character
// alphabet, formatted as RIVO-XXX-XXX-XXX
func randomBookingCode() (string, error) {
	chars := make([]byte, 9)
	max := big.NewInt(int64(len(bookingCodeAlphabet)))
	for i := range chars {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate booking code: %w", err)
		}
		chars[i] = bookingCodeAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%s-%s-%s", bookingCodePrefix, chars[0:3], chars[3:6], chars[6:9]), nil
}

// GenerateBookingCode returns a booking code not yet carried by any
// appointment, retired ones included. Retries on collision.
func GenerateBookingCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < bookingCodeAttempts; attempt++ {
		code, err := randomBookingCode()
		if err != nil {
			return "", err
		}

		var count int64
		// Unscoped: codes of canceled (soft-deleted) appointments stay retired
		if err := tx.Unscoped().Model(&models.Appointment{}).Where("booking_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check booking code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique booking code after %d attempts", bookingCodeAttempts)
}
