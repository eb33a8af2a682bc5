package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/notify"
	"github.com/iliyamo/hostel-booking/internal/pricing"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

// Service orchestrates the reservation lifecycle.  All dependencies are
// interfaces; the MySQL repos, the gateway HTTP client and the RabbitMQ
// publisher satisfy them in production.  Now is injectable so tests can
// pin the clock; when nil, time.Now is used.
type Service struct {
	Categories   CategoryStore
	Reservations ReservationStore
	Blocks       BlockStore
	Settings     SettingsStore
	Gateway      Gateway
	Notifier     Notifier
	Now          func() time.Time
	ReturnURL    string // where the gateway sends the guest after payment
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// publish fires a notification event and swallows any error.  Delivery
// problems are logged; they never affect the booking decision.
func (s *Service) publish(ctx context.Context, ev notify.Event) {
	if s.Notifier == nil {
		return
	}
	ev.OccurredAt = s.now().Format(time.RFC3339)
	if err := s.Notifier.Publish(ctx, ev); err != nil {
		log.Printf("booking: publish %s for reservation %d failed: %v", ev.Kind, ev.ReservationID, err)
	}
}

func (s *Service) eventFor(res *model.Reservation, categoryName, kind string) notify.Event {
	return notify.Event{
		Kind:          kind,
		ReservationID: res.ID,
		CategoryName:  categoryName,
		GuestName:     res.GuestName,
		GuestEmail:    res.GuestEmail,
		GuestPhone:    res.GuestPhone,
		CheckIn:       res.CheckIn.Format("2006-01-02"),
		CheckOut:      res.CheckOut.Format("2006-01-02"),
		Nights:        res.Nights,
		TotalPrice:    res.TotalPrice,
	}
}

// CreateInput is a guest's booking submission.
type CreateInput struct {
	Category  string // numeric id or slug
	CheckIn   time.Time
	CheckOut  time.Time
	GuestName string
	Phone     string
	Email     string
	Guests    uint32
	Comment   string
	Source    string
}

// CreateResult is returned to the booking form.
type CreateResult struct {
	ReservationID uint64        `json:"reservation_id"`
	Status        string        `json:"status"`
	CategoryName  string        `json:"category_name"`
	Nights        uint32        `json:"nights"`
	Quote         pricing.Quote `json:"price"`
}

func (in *CreateInput) validate() *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(in.GuestName) == "" {
		fields["guest_name"] = "is required"
	}
	if strings.TrimSpace(in.Phone) == "" {
		fields["guest_phone"] = "is required"
	}
	if strings.TrimSpace(in.Email) == "" {
		fields["guest_email"] = "is required"
	}
	if in.Guests == 0 {
		fields["guests"] = "must be at least 1"
	}
	if !in.CheckOut.After(in.CheckIn) {
		fields["check_out"] = "must be after check_in"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Create validates the submission, re-checks capacity and persists a
// new reservation in PENDING/PENDING.  The overlap count runs again
// here, immediately before the insert; the earlier availability check
// is advisory only.  The count and insert are not wrapped in a
// serializable transaction, so two simultaneous creators can both pass
// the check.  Overbooking is treated as a rare, manually reconciled
// failure mode.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if ve := in.validate(); ve != nil {
		return nil, ve
	}
	cat, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	if in.Guests > cat.MaxGuests {
		return nil, &ValidationError{Fields: map[string]string{
			"guests": fmt.Sprintf("at most %d guests for this category", cat.MaxGuests),
		}}
	}

	overlap, err := s.Reservations.CountOverlapping(ctx, cat.ID, in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	if overlap >= cat.TotalUnits {
		return nil, ErrCapacityExceeded
	}
	blocked, err := s.Blocks.CountBlocking(ctx, cat.ID, in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	if blocked > 0 {
		return nil, ErrCapacityExceeded
	}

	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	nights := pricing.Nights(in.CheckIn, in.CheckOut)
	percent := pricing.DiscountTier(nights, settings.Tier1Percent, settings.Tier2Percent)
	quote := pricing.TotalPrice(cat.PricePerNight, nights, percent)

	source := in.Source
	if source == "" {
		source = "site"
	}
	res := &model.Reservation{
		CategoryID:      cat.ID,
		CheckIn:         in.CheckIn,
		CheckOut:        in.CheckOut,
		Nights:          nights,
		GuestName:       strings.TrimSpace(in.GuestName),
		GuestPhone:      strings.TrimSpace(in.Phone),
		GuestEmail:      strings.TrimSpace(in.Email),
		Guests:          in.Guests,
		BasePrice:       quote.BasePrice,
		DiscountPercent: quote.DiscountPercent,
		DiscountAmount:  quote.DiscountAmount,
		TotalPrice:      quote.TotalPrice,
		Status:          model.BookingPending,
		PaymentStatus:   model.PaymentPending,
		Comment:         in.Comment,
		Source:          source,
	}
	if err := s.Reservations.Create(ctx, res); err != nil {
		return nil, err
	}

	s.publish(ctx, s.eventFor(res, cat.Name, notify.KindBookingCreated))

	return &CreateResult{
		ReservationID: res.ID,
		Status:        res.Status,
		CategoryName:  cat.Name,
		Nights:        nights,
		Quote:         quote,
	}, nil
}

// Get returns the full reservation projection.
func (s *Service) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.Reservations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// PaymentStart is what the guest needs to complete a payment.
type PaymentStart struct {
	PaymentID       string `json:"payment_id"`
	ConfirmationURL string `json:"confirmation_url"`
}

// InitiatePayment creates a remote payment object for the reservation
// and moves payment_status to PROCESSING.  When a payment was already
// initiated earlier, the gateway is queried first: the guest may have
// paid in another tab and the webhook may simply not have arrived yet.
func (s *Service) InitiatePayment(ctx context.Context, id uint64) (*PaymentStart, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.PaymentStatus == model.PaymentSucceeded {
		return nil, ErrAlreadyPaid
	}
	if res.Status == model.BookingCancelled {
		return nil, ErrBookingCancelled
	}

	if res.PaymentID != nil && res.PaymentStatus == model.PaymentProcessing {
		info, err := s.Gateway.GetPayment(ctx, *res.PaymentID)
		if err == nil && info.Status == model.PaymentSucceeded {
			// webhook lagging behind; apply the success now
			if err := s.Reservations.MarkPaid(ctx, res.ID, info.ID, s.now()); err != nil {
				return nil, err
			}
			return nil, ErrAlreadyPaid
		}
	}

	desc := fmt.Sprintf("Reservation #%d, %s to %s", res.ID,
		res.CheckIn.Format("2006-01-02"), res.CheckOut.Format("2006-01-02"))
	intent, err := s.Gateway.CreatePayment(ctx, PaymentRequest{
		Amount:        res.TotalPrice,
		Description:   desc,
		ReservationID: res.ID,
		CustomerEmail: res.GuestEmail,
		CustomerPhone: res.GuestPhone,
		ReturnURL:     s.ReturnURL,
		ReceiptItem:   fmt.Sprintf("Accommodation, %d night(s)", res.Nights),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if err := s.Reservations.SetPaymentInitiated(ctx, res.ID, intent.ID); err != nil {
		return nil, err
	}
	return &PaymentStart{PaymentID: intent.ID, ConfirmationURL: intent.ConfirmationURL}, nil
}

// WebhookEvent is an inbound gateway notification after the handler has
// pulled the reservation id out of the payment metadata.
type WebhookEvent struct {
	Type          string // "payment.succeeded", "payment.canceled"
	PaymentID     string
	ReservationID uint64
}

// ApplyWebhook applies a gateway event idempotently.  Unknown
// reservations and unrecognized event types are logged and dropped
// without error: the handler always acknowledges receipt so the
// gateway does not enter a retry storm.
func (s *Service) ApplyWebhook(ctx context.Context, ev WebhookEvent) error {
	if ev.ReservationID == 0 {
		log.Printf("webhook: dropping %s event %s with no reservation id in metadata", ev.Type, ev.PaymentID)
		return nil
	}
	res, err := s.Reservations.GetByID(ctx, ev.ReservationID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("webhook: dropping %s event %s for unknown reservation %d", ev.Type, ev.PaymentID, ev.ReservationID)
		return nil
	}
	if err != nil {
		return err
	}

	switch ev.Type {
	case "payment.succeeded":
		if res.PaymentStatus == model.PaymentSucceeded {
			return nil // duplicate delivery, already applied
		}
		if err := s.Reservations.MarkPaid(ctx, res.ID, ev.PaymentID, s.now()); err != nil {
			return err
		}
		cat, err := s.Categories.GetByID(ctx, res.CategoryID)
		name := ""
		if err == nil {
			name = cat.Name
		}
		s.publish(ctx, s.eventFor(res, name, notify.KindPaymentSucceeded))
	case "payment.canceled":
		if res.PaymentStatus == model.PaymentCanceled {
			return nil
		}
		if err := s.Reservations.MarkPaymentCanceled(ctx, res.ID); err != nil {
			return err
		}
	default:
		log.Printf("webhook: dropping unrecognized event type %q for reservation %d", ev.Type, ev.ReservationID)
	}
	return nil
}

// CancelResult reports what the guest gets back.
type CancelResult struct {
	RefundAmount  int64  `json:"refund_amount"`
	RefundPercent uint32 `json:"refund_percent"`
	RefundID      string `json:"refund_id,omitempty"`
}

// Cancel cancels a reservation and refunds according to the flat
// 24-hour rule: a full refund up to 24 hours before check-in, the total
// minus one night inside the window (floored at zero), and nothing once
// check-in has passed unless the booking was still PENDING.  When money
// was actually collected, a failed gateway refund aborts the whole
// cancellation rather than leaving a cancelled-but-unrefunded booking.
func (s *Service) Cancel(ctx context.Context, id uint64, reason string) (*CancelResult, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status == model.BookingCancelled {
		return nil, ErrBookingCancelled
	}
	if res.Status == model.BookingCheckedOut {
		return nil, ErrRefundWindowClosed
	}

	now := s.now()
	hoursUntil := res.CheckIn.Sub(now).Hours()

	var refund int64
	switch {
	case hoursUntil >= 24:
		refund = res.TotalPrice
	case hoursUntil > 0:
		oneNight := res.BasePrice
		if res.Nights > 0 {
			oneNight = res.BasePrice / int64(res.Nights)
		}
		refund = res.TotalPrice - oneNight
		if refund < 0 {
			refund = 0
		}
	default:
		if res.Status != model.BookingPending {
			return nil, ErrRefundWindowClosed
		}
		refund = 0
	}

	result := &CancelResult{}
	paymentStatus := "" // leave untouched unless money moves back
	if res.PaymentStatus == model.PaymentSucceeded && refund > 0 && res.PaymentID != nil {
		desc := fmt.Sprintf("Cancellation of reservation #%d", res.ID)
		r, err := s.Gateway.CreateRefund(ctx, *res.PaymentID, refund, desc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRefundFailed, err)
		}
		result.RefundID = r.ID
		result.RefundAmount = refund
		if res.TotalPrice > 0 {
			result.RefundPercent = uint32(refund * 100 / res.TotalPrice)
		}
		paymentStatus = model.PaymentRefunded
	}

	note := fmt.Sprintf("cancelled at %s, refund %d", now.Format(time.RFC3339), result.RefundAmount)
	if reason != "" {
		note += ", reason: " + reason
	}
	if err := s.Reservations.Cancel(ctx, res.ID, paymentStatus, note); err != nil {
		return nil, err
	}

	cat, catErr := s.Categories.GetByID(ctx, res.CategoryID)
	name := ""
	if catErr == nil {
		name = cat.Name
	}
	ev := s.eventFor(res, name, notify.KindBookingCancelled)
	ev.RefundAmount = result.RefundAmount
	ev.Reason = reason
	s.publish(ctx, ev)

	return result, nil
}
