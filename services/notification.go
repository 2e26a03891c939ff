package services

import (
	"fmt"
	"log"

	"rivo_booking_go/config"
	"rivo_booking_go/models"

	"github.com/resend/resend-go/v2"
	"gorm.io/gorm"
)

// Notification templates
const (
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateBookingCanceled  = "booking_canceled"
)

// Email represents an outbound message
type Email struct {
	To       []string
	Subject  string
	TextBody string
}

// SendEmail delivers an email via Resend. In test mode the message is logged
// to the console instead of sent.
func SendEmail(cfg *config.Config, email *Email) error {
	if cfg.EmailTestMode {
		log.Printf("[EMAIL] (test mode) to=%v subject=%q\n%s", email.To, email.Subject, email.TextBody)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Text:    email.TextBody,
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	log.Printf("Email sent via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

// NotifyBookingConfirmed emails the booking confirmation to a guest and logs
// the attempt. Notification failures never fail the booking; the appointment
// is already committed.
func NotifyBookingConfirmed(db *gorm.DB, cfg *config.Config, apt *models.Appointment, manageToken string) {
	if apt.GuestEmail == nil {
		return
	}

	body := fmt.Sprintf("Your booking %s is confirmed for %s.",
		apt.BookingCode, apt.SlotStart.Format("Mon, 02 Jan 2006 15:04 MST"))
	if manageToken != "" {
		body += fmt.Sprintf("\n\nManage your booking: %s/manage/%s?token=%s", cfg.AppURL, apt.BookingCode, manageToken)
	}

	email := &Email{
		To:       []string{*apt.GuestEmail},
		Subject:  fmt.Sprintf("Booking confirmed - %s", apt.BookingCode),
		TextBody: body,
	}

	sendAndLog(db, cfg, apt, TemplateBookingConfirmed, email)
}

// NotifyBookingCanceled emails the cancellation notice to a guest
func NotifyBookingCanceled(db *gorm.DB, cfg *config.Config, apt *models.Appointment) {
	if apt.GuestEmail == nil {
		return
	}

	email := &Email{
		To:      []string{*apt.GuestEmail},
		Subject: fmt.Sprintf("Booking canceled - %s", apt.BookingCode),
		TextBody: fmt.Sprintf("Your booking %s for %s has been canceled.",
			apt.BookingCode, apt.SlotStart.Format("Mon, 02 Jan 2006 15:04 MST")),
	}

	sendAndLog(db, cfg, apt, TemplateBookingCanceled, email)
}

// sendAndLog delivers asynchronously and records the outcome in
// notification_logs
func sendAndLog(db *gorm.DB, cfg *config.Config, apt *models.Appointment, template string, email *Email) {
	go func() {
		entry := models.NotificationLog{
			TenantID:      apt.TenantID,
			AppointmentID: apt.ID,
			Channel:       "email",
			Recipient:     email.To[0],
			Template:      template,
		}

		err := SendEmail(cfg, email)
		switch {
		case err != nil:
			msg := err.Error()
			entry.Status = models.NotificationStatusFailed
			entry.Error = &msg
			log.Printf("[NOTIFY] Failed to send %s for appointment %s: %v", template, apt.ID, err)
		case cfg.EmailTestMode:
			entry.Status = models.NotificationStatusLogged
		default:
			entry.Status = models.NotificationStatusSent
		}

		if dbErr := db.Create(&entry).Error; dbErr != nil {
			log.Printf("[NOTIFY] Failed to record notification log: %v", dbErr)
		}
	}()
}
