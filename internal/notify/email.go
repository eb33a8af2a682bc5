package notify

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// EmailSender delivers booking notifications over plain SMTP.  It is
// used by the queue consumer, never by the request path, so a slow or
// down mail server cannot delay a booking.
type EmailSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	StaffTo  string // staff mailbox receiving copies of every event
}

// EmailFromEnv builds an EmailSender from SMTP_* environment variables.
// Returns nil when SMTP_HOST is unset so the consumer can skip email
// delivery entirely.
func EmailFromEnv() *EmailSender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &EmailSender{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		From:     os.Getenv("SMTP_FROM"),
		StaffTo:  os.Getenv("STAFF_EMAIL"),
	}
}

// Send delivers the event to the guest (when an address is present) and
// to the staff mailbox.  Subject and body come from the event kind.
func (s *EmailSender) Send(ev Event) error {
	subject, body := renderEmail(ev)
	to := make([]string, 0, 2)
	if ev.GuestEmail != "" {
		to = append(to, ev.GuestEmail)
	}
	if s.StaffTo != "" {
		to = append(to, s.StaffTo)
	}
	if len(to) == 0 {
		return nil
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.From, strings.Join(to, ", "), subject, body)
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	return smtp.SendMail(s.Host+":"+s.Port, auth, s.From, to, []byte(msg))
}

func renderEmail(ev Event) (subject, body string) {
	stay := fmt.Sprintf("%s → %s (%d nights), %s, total %.2f RUB",
		ev.CheckIn, ev.CheckOut, ev.Nights, ev.CategoryName, float64(ev.TotalPrice)/100)
	switch ev.Kind {
	case KindBookingCreated:
		subject = fmt.Sprintf("Booking #%d received", ev.ReservationID)
		body = fmt.Sprintf("Hello %s!\n\nWe received your booking: %s.\nPlease complete the payment to confirm it.", ev.GuestName, stay)
	case KindPaymentSucceeded:
		subject = fmt.Sprintf("Booking #%d confirmed", ev.ReservationID)
		body = fmt.Sprintf("Hello %s!\n\nYour payment went through and the booking is confirmed: %s.\nSee you soon!", ev.GuestName, stay)
	case KindBookingCancelled:
		subject = fmt.Sprintf("Booking #%d cancelled", ev.ReservationID)
		body = fmt.Sprintf("Hello %s!\n\nYour booking was cancelled: %s.\nRefund amount: %.2f RUB.", ev.GuestName, stay, float64(ev.RefundAmount)/100)
	default:
		subject = fmt.Sprintf("Booking #%d update", ev.ReservationID)
		body = stay
	}
	return subject, body
}
