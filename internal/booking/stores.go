package booking

import (
	"context"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/notify"
)

// CategoryStore reads room categories.  Missing rows are reported as
// repository.ErrNotFound by the MySQL implementation.
type CategoryStore interface {
	GetByID(ctx context.Context, id uint64) (*model.RoomCategory, error)
	GetBySlug(ctx context.Context, slug string) (*model.RoomCategory, error)
	ListActive(ctx context.Context) ([]model.RoomCategory, error)
}

// ReservationStore persists reservations and runs the aggregate queries
// the engine needs.  Date ranges are half-open `[checkIn, checkOut)`.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	// CountOverlapping counts reservations in an occupying status whose
	// stay intersects the given range for the category.
	CountOverlapping(ctx context.Context, categoryID uint64, checkIn, checkOut time.Time) (uint32, error)
	// SetPaymentInitiated stores the gateway payment id and moves the
	// payment status to PROCESSING.
	SetPaymentInitiated(ctx context.Context, id uint64, paymentID string) error
	// MarkPaid transitions to CONFIRMED/SUCCEEDED, stamps paid_at and
	// records the gateway receipt reference.
	MarkPaid(ctx context.Context, id uint64, paymentID string, paidAt time.Time) error
	// MarkPaymentCanceled sets payment_status to CANCELED leaving the
	// booking status untouched.
	MarkPaymentCanceled(ctx context.Context, id uint64) error
	// Cancel sets status to CANCELLED, optionally flips the payment
	// status (empty string leaves it alone) and appends an audit note.
	Cancel(ctx context.Context, id uint64, paymentStatus, note string) error
	// ExpireStalePending cancels PENDING/PENDING reservations created
	// before the cutoff and returns how many rows changed.
	ExpireStalePending(ctx context.Context, cutoff time.Time, note string) (int64, error)
	// CheckoutPastDue moves CONFIRMED/CHECKED_IN reservations whose
	// check-out date has passed to CHECKED_OUT.
	CheckoutPastDue(ctx context.Context, today time.Time) (int64, error)
	// MarkNoShows moves CONFIRMED reservations whose check-in is before
	// the cutoff and whose check-out is still ahead to NO_SHOW.
	MarkNoShows(ctx context.Context, cutoff, today time.Time) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]model.Reservation, error)
	// ListInconsistent returns reservations whose status/payment_status
	// pairing violates the state-machine invariants.
	ListInconsistent(ctx context.Context) ([]model.Reservation, error)
}

// BlockStore reads administrative blocked dates.
type BlockStore interface {
	// CountBlocking counts blocks intersecting the range that target
	// the category or are global.
	CountBlocking(ctx context.Context, categoryID uint64, checkIn, checkOut time.Time) (uint32, error)
}

// SettingsStore returns the global hotel settings, falling back to
// model.DefaultSettings when the row does not exist.
type SettingsStore interface {
	Get(ctx context.Context) (model.HotelSettings, error)
}

// PaymentRequest describes a remote payment object to create.
type PaymentRequest struct {
	Amount        int64  // kopeks
	Description   string
	ReservationID uint64 // embedded in gateway metadata, echoed by webhooks
	CustomerEmail string
	CustomerPhone string
	ReturnURL     string
	ReceiptItem   string // single receipt line for fiscalization
}

// PaymentIntent is the created remote payment the guest is redirected to.
type PaymentIntent struct {
	ID              string
	ConfirmationURL string
}

// PaymentInfo is the gateway's view of an existing payment after status
// mapping onto the internal PaymentStatus vocabulary.
type PaymentInfo struct {
	ID     string
	Status string // model.Payment* constant
	Amount int64
}

// Refund is the result of a gateway refund call.
type Refund struct {
	ID     string
	Status string
}

// Gateway is the payment gateway adapter.  It never contains business
// rules; the engine decides what to charge and refund.
type Gateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentIntent, error)
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
	CreateRefund(ctx context.Context, paymentID string, amount int64, description string) (*Refund, error)
}

// Notifier publishes booking events for the notification workers.
// Publishing is best effort: the engine logs failures and never lets
// them affect the booking decision.
type Notifier interface {
	Publish(ctx context.Context, ev notify.Event) error
}
