// Package notify defines the booking event payloads exchanged over the
// message broker and the senders that deliver them to guests and staff.
package notify

// Event kinds published by the booking engine.
const (
	KindBookingCreated   = "booking.created"
	KindPaymentSucceeded = "payment.succeeded"
	KindBookingCancelled = "booking.cancelled"
)

// Event is published on every reservation lifecycle transition worth
// telling someone about.  It carries enough information for downstream
// consumers to send email and chat messages without querying the
// primary database.
type Event struct {
	Kind          string `json:"kind"`
	ReservationID uint64 `json:"reservation_id"`
	CategoryName  string `json:"category_name"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
	GuestPhone    string `json:"guest_phone"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	Nights        uint32 `json:"nights"`
	TotalPrice    int64  `json:"total_price"`
	RefundAmount  int64  `json:"refund_amount,omitempty"`
	Reason        string `json:"reason,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
