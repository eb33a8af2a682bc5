package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// TelegramSender pushes a short message about every booking event into
// the staff chat via the Bot API.  Like email it runs only inside the
// queue consumer.
type TelegramSender struct {
	Token  string
	ChatID string
	Client *http.Client
}

// TelegramFromEnv builds a TelegramSender from TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHAT_ID.  Returns nil when the token is unset.
func TelegramFromEnv() *TelegramSender {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil
	}
	return &TelegramSender{
		Token:  token,
		ChatID: os.Getenv("TELEGRAM_CHAT_ID"),
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the rendered event text to the configured chat.
func (s *TelegramSender) Send(ev Event) error {
	payload := map[string]string{
		"chat_id": s.ChatID,
		"text":    renderTelegram(ev),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.Token)
	resp, err := s.Client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: sendMessage returned %d", resp.StatusCode)
	}
	return nil
}

func renderTelegram(ev Event) string {
	var head string
	switch ev.Kind {
	case KindBookingCreated:
		head = "New booking"
	case KindPaymentSucceeded:
		head = "Payment received"
	case KindBookingCancelled:
		head = "Booking cancelled"
	default:
		head = "Booking update"
	}
	text := fmt.Sprintf("%s #%d\n%s, %s → %s (%d nights)\nGuest: %s, %s\nTotal: %.2f RUB",
		head, ev.ReservationID, ev.CategoryName, ev.CheckIn, ev.CheckOut, ev.Nights,
		ev.GuestName, ev.GuestPhone, float64(ev.TotalPrice)/100)
	if ev.Kind == KindBookingCancelled {
		text += fmt.Sprintf("\nRefund: %.2f RUB", float64(ev.RefundAmount)/100)
		if ev.Reason != "" {
			text += "\nReason: " + ev.Reason
		}
	}
	return text
}
