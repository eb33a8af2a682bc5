package model

import "time"

// Booking status values.  PENDING bookings still occupy capacity until
// the janitor expires them; CANCELLED, CHECKED_OUT and NO_SHOW are
// terminal.
const (
	BookingPending    = "PENDING"
	BookingConfirmed  = "CONFIRMED"
	BookingCheckedIn  = "CHECKED_IN"
	BookingCheckedOut = "CHECKED_OUT"
	BookingCancelled  = "CANCELLED"
	BookingNoShow     = "NO_SHOW"
)

// Payment status values.  These mirror the gateway vocabulary after
// mapping: pending/waiting_for_capture/succeeded/canceled become
// PENDING/PROCESSING/SUCCEEDED/CANCELED respectively.
const (
	PaymentPending    = "PENDING"
	PaymentProcessing = "PROCESSING"
	PaymentSucceeded  = "SUCCEEDED"
	PaymentCanceled   = "CANCELED"
	PaymentFailed     = "FAILED"
	PaymentRefunded   = "REFUNDED"
)

// Reservation records one guest's stay in a room category.  The price
// breakdown is cached at creation time so that later settings changes
// do not retroactively alter what the guest agreed to pay.  Dates are
// stored as DATE columns and surface here as UTC midnight times.
//
// Fields:
//  ID              – primary key identifier.
//  CategoryID      – room category being booked.
//  CheckIn         – arrival date (inclusive).
//  CheckOut        – departure date (exclusive).
//  Nights          – cached number of nights between the two dates.
//  GuestName       – full name of the guest.
//  GuestPhone      – contact phone number.
//  GuestEmail      – contact email address.
//  Guests          – number of guests staying.
//  BasePrice       – nightly rate times nights, in kopeks.
//  DiscountPercent – tier discount applied (0, tier1 or tier2).
//  DiscountAmount  – rounded discount in kopeks.
//  TotalPrice      – BasePrice minus DiscountAmount.
//  Status          – booking status (see constants above).
//  PaymentStatus   – payment status (see constants above).
//  PaymentID       – external payment reference from the gateway.
//  PaidAt          – when the payment succeeded (nullable).
//  Comment         – free-text comment from the guest.
//  AdminNote       – audit trail appended by staff and the janitor.
//  Source          – where the booking came from ("site", "phone", ...).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64     // reservations.id
	CategoryID      uint64     // reservations.category_id
	CheckIn         time.Time  // reservations.check_in
	CheckOut        time.Time  // reservations.check_out
	Nights          uint32     // reservations.nights
	GuestName       string     // reservations.guest_name
	GuestPhone      string     // reservations.guest_phone
	GuestEmail      string     // reservations.guest_email
	Guests          uint32     // reservations.guests
	BasePrice       int64      // reservations.base_price
	DiscountPercent uint32     // reservations.discount_percent
	DiscountAmount  int64      // reservations.discount_amount
	TotalPrice      int64      // reservations.total_price
	Status          string     // reservations.status
	PaymentStatus   string     // reservations.payment_status
	PaymentID       *string    // reservations.payment_id (nullable)
	PaidAt          *time.Time // reservations.paid_at (nullable)
	Comment         string     // reservations.comment
	AdminNote       string     // reservations.admin_note
	Source          string     // reservations.source
	CreatedAt       time.Time  // reservations.created_at
	UpdatedAt       time.Time  // reservations.updated_at
}

// OccupyingStatuses lists the booking statuses that still count against
// category capacity when computing overlaps.
var OccupyingStatuses = []string{BookingPending, BookingConfirmed, BookingCheckedIn}
