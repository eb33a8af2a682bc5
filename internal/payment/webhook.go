package payment

import (
	"encoding/json"
	"strconv"

	"github.com/iliyamo/hostel-booking/internal/booking"
)

// ParseWebhook decodes an inbound gateway notification into the
// engine's WebhookEvent.  The reservation id travels in the payment
// metadata; when it is missing or malformed the event comes back with a
// zero ReservationID and the engine logs and drops it.  Only malformed
// JSON is an error — the webhook handler still acknowledges it.
func ParseWebhook(body []byte) (booking.WebhookEvent, error) {
	var n struct {
		Event  string        `json:"event"`
		Object paymentObject `json:"object"`
	}
	if err := json.Unmarshal(body, &n); err != nil {
		return booking.WebhookEvent{}, err
	}
	ev := booking.WebhookEvent{
		Type:      n.Event,
		PaymentID: n.Object.ID,
	}
	if raw, ok := n.Object.Metadata["reservation_id"]; ok {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			ev.ReservationID = id
		}
	}
	return ev, nil
}
