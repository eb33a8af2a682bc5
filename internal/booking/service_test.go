package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/notify"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

// memStore is an in-memory implementation of the store interfaces used
// to exercise the engine without a database.
type memStore struct {
	categories   []*model.RoomCategory
	reservations map[uint64]*model.Reservation
	blocks       []model.BlockedDate
	settings     model.HotelSettings
	nextID       uint64
}

func newMemStore() *memStore {
	return &memStore{
		reservations: map[uint64]*model.Reservation{},
		settings:     model.DefaultSettings(),
	}
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.RoomCategory, error) {
	for _, c := range m.categories {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) GetBySlug(ctx context.Context, slug string) (*model.RoomCategory, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) ListActive(ctx context.Context) ([]model.RoomCategory, error) {
	out := make([]model.RoomCategory, 0)
	for _, c := range m.categories {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) Create(ctx context.Context, r *model.Reservation) error {
	m.nextID++
	r.ID = m.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	cp := *r
	m.reservations[r.ID] = &cp
	return nil
}

func (m *memStore) getReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) CountOverlapping(ctx context.Context, categoryID uint64, checkIn, checkOut time.Time) (uint32, error) {
	var n uint32
	for _, r := range m.reservations {
		if r.CategoryID != categoryID {
			continue
		}
		occupying := false
		for _, s := range model.OccupyingStatuses {
			if r.Status == s {
				occupying = true
			}
		}
		if !occupying {
			continue
		}
		if r.CheckIn.Before(checkOut) && checkIn.Before(r.CheckOut) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) SetPaymentInitiated(ctx context.Context, id uint64, paymentID string) error {
	r, ok := m.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.PaymentStatus = model.PaymentProcessing
	r.PaymentID = &paymentID
	return nil
}

func (m *memStore) MarkPaid(ctx context.Context, id uint64, paymentID string, paidAt time.Time) error {
	r, ok := m.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = model.BookingConfirmed
	r.PaymentStatus = model.PaymentSucceeded
	r.PaymentID = &paymentID
	r.PaidAt = &paidAt
	return nil
}

func (m *memStore) MarkPaymentCanceled(ctx context.Context, id uint64) error {
	r, ok := m.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.PaymentStatus = model.PaymentCanceled
	return nil
}

func (m *memStore) Cancel(ctx context.Context, id uint64, paymentStatus, note string) error {
	r, ok := m.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = model.BookingCancelled
	if paymentStatus != "" {
		r.PaymentStatus = paymentStatus
	}
	if r.AdminNote != "" {
		r.AdminNote += "\n"
	}
	r.AdminNote += note
	return nil
}

func (m *memStore) ExpireStalePending(ctx context.Context, cutoff time.Time, note string) (int64, error) {
	var n int64
	for _, r := range m.reservations {
		if r.Status == model.BookingPending && r.PaymentStatus == model.PaymentPending && r.CreatedAt.Before(cutoff) {
			r.Status = model.BookingCancelled
			if r.AdminNote != "" {
				r.AdminNote += "\n"
			}
			r.AdminNote += note
			n++
		}
	}
	return n, nil
}

func (m *memStore) CheckoutPastDue(ctx context.Context, today time.Time) (int64, error) {
	var n int64
	for _, r := range m.reservations {
		if (r.Status == model.BookingConfirmed || r.Status == model.BookingCheckedIn) && !r.CheckOut.After(today) {
			r.Status = model.BookingCheckedOut
			n++
		}
	}
	return n, nil
}

func (m *memStore) MarkNoShows(ctx context.Context, cutoff, today time.Time) (int64, error) {
	var n int64
	for _, r := range m.reservations {
		if r.Status == model.BookingConfirmed && r.CheckIn.Before(cutoff) && r.CheckOut.After(today) {
			r.Status = model.BookingNoShow
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListRecent(ctx context.Context, limit int) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for _, r := range m.reservations {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) ListInconsistent(ctx context.Context) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for _, r := range m.reservations {
		bad := (r.PaymentStatus == model.PaymentSucceeded && r.Status == model.BookingPending) ||
			((r.PaymentStatus == model.PaymentCanceled || r.PaymentStatus == model.PaymentRefunded) && r.Status == model.BookingConfirmed)
		if bad {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) CountBlocking(ctx context.Context, categoryID uint64, checkIn, checkOut time.Time) (uint32, error) {
	var n uint32
	for _, b := range m.blocks {
		if b.CategoryID != nil && *b.CategoryID != categoryID {
			continue
		}
		if b.StartDate.Before(checkOut) && checkIn.Before(b.EndDate) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Get(ctx context.Context) (model.HotelSettings, error) {
	return m.settings, nil
}

// reservationStoreAdapter exposes memStore's reservation lookup under
// the interface name GetByID without clashing with the category lookup.
type reservationStoreAdapter struct{ *memStore }

func (a reservationStoreAdapter) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return a.getReservation(ctx, id)
}

type fakeGateway struct {
	payments      int
	refunds       int
	lastRefund    int64
	createErr     error
	refundErr     error
	paymentStatus string // returned by GetPayment
}

func (g *fakeGateway) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentIntent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.payments++
	id := fmt.Sprintf("pay_%d", g.payments)
	return &PaymentIntent{ID: id, ConfirmationURL: "https://gw.example/confirm/" + id}, nil
}

func (g *fakeGateway) GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	status := g.paymentStatus
	if status == "" {
		status = model.PaymentProcessing
	}
	return &PaymentInfo{ID: paymentID, Status: status}, nil
}

func (g *fakeGateway) CreateRefund(ctx context.Context, paymentID string, amount int64, description string) (*Refund, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds++
	g.lastRefund = amount
	return &Refund{ID: fmt.Sprintf("ref_%d", g.refunds), Status: "succeeded"}, nil
}

type fakeNotifier struct {
	events []notify.Event
}

func (n *fakeNotifier) Publish(ctx context.Context, ev notify.Event) error {
	n.events = append(n.events, ev)
	return nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func newTestService() (*Service, *memStore, *fakeGateway, *fakeNotifier) {
	store := newMemStore()
	store.categories = []*model.RoomCategory{
		{ID: 1, Name: "8-bed dorm", Slug: "dorm-8", PricePerNight: 60000, MaxGuests: 2, TotalUnits: 3, IsActive: true},
		{ID: 2, Name: "Private twin", Slug: "twin", PricePerNight: 180000, MaxGuests: 2, TotalUnits: 1, IsActive: true},
	}
	gw := &fakeGateway{}
	nf := &fakeNotifier{}
	svc := &Service{
		Categories:   store,
		Reservations: reservationStoreAdapter{store},
		Blocks:       store,
		Settings:     store,
		Gateway:      gw,
		Notifier:     nf,
		Now:          func() time.Time { return testNow },
		ReturnURL:    "https://hostel.example/thanks",
	}
	return svc, store, gw, nf
}

func validInput() CreateInput {
	return CreateInput{
		Category:  "1",
		CheckIn:   day(10),
		CheckOut:  day(13),
		GuestName: "Anna Petrova",
		Phone:     "+79990001122",
		Email:     "anna@example.com",
		Guests:    1,
	}
}

func TestResolveCategoryByIDAndSlug(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	byID, err := svc.resolveCategory(ctx, "2")
	if err != nil {
		t.Fatalf("resolve by id: %v", err)
	}
	if byID.Slug != "twin" {
		t.Fatalf("resolve by id got %q", byID.Slug)
	}

	bySlug, err := svc.resolveCategory(ctx, "dorm-8")
	if err != nil {
		t.Fatalf("resolve by slug: %v", err)
	}
	if bySlug.ID != 1 {
		t.Fatalf("resolve by slug got id %d", bySlug.ID)
	}

	if _, err := svc.resolveCategory(ctx, "penthouse"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("unknown category: got %v, want ErrCategoryNotFound", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	av, err := svc.CheckAvailability(ctx, "dorm-8", day(10), day(17), 1)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !av.Available || av.AvailableUnits != 3 {
		t.Fatalf("expected 3 free units, got %+v", av)
	}
	if av.Nights != 7 || av.Quote.TotalPrice != 399000 {
		t.Fatalf("expected 7 nights at 3990.00, got nights=%d quote=%+v", av.Nights, av.Quote)
	}

	// guest count above the category limit short-circuits
	av, err = svc.CheckAvailability(ctx, "dorm-8", day(10), day(17), 5)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if av.Available || av.Reason != "capacity exceeded" {
		t.Fatalf("expected capacity exceeded, got %+v", av)
	}

	// a global block vetoes availability regardless of capacity
	store.blocks = append(store.blocks, model.BlockedDate{StartDate: day(12), EndDate: day(14)})
	av, err = svc.CheckAvailability(ctx, "dorm-8", day(10), day(17), 1)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if av.Available || av.Reason != "dates are blocked" {
		t.Fatalf("expected block veto, got %+v", av)
	}
}

func TestCheckAvailabilityBoundaryDates(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	// occupy all three units for [10, 13)
	for i := 0; i < 3; i++ {
		in := validInput()
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("seed create %d: %v", i, err)
		}
	}

	// back-to-back stay starting on the check-out date does not overlap
	av, err := svc.CheckAvailability(ctx, "1", day(13), day(15), 1)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !av.Available {
		t.Fatalf("half-open ranges must not overlap at the boundary: %+v", av)
	}

	av, err = svc.CheckAvailability(ctx, "1", day(12), day(15), 1)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if av.Available || av.AvailableUnits != 0 {
		t.Fatalf("expected no units for an overlapping range, got %+v", av)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	in := validInput()
	in.GuestName = "  "
	in.CheckOut = in.CheckIn
	_, err := svc.Create(ctx, in)
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := ve.Fields["guest_name"]; !ok {
		t.Errorf("missing guest_name detail: %v", ve.Fields)
	}
	if _, ok := ve.Fields["check_out"]; !ok {
		t.Errorf("missing check_out detail: %v", ve.Fields)
	}

	in = validInput()
	in.Guests = 9
	if _, err := svc.Create(ctx, in); err == nil {
		t.Fatal("expected guest-count validation error")
	}
}

func TestCreateCapacityInvariant(t *testing.T) {
	svc, _, _, nf := newTestService()
	ctx := context.Background()

	// totalUnits = 3: three overlapping bookings fit, the fourth is rejected
	for i := 0; i < 3; i++ {
		res, err := svc.Create(ctx, validInput())
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if res.Status != model.BookingPending {
			t.Fatalf("new booking status = %s", res.Status)
		}
	}
	_, err := svc.Create(ctx, validInput())
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("fourth overlapping booking: got %v, want ErrCapacityExceeded", err)
	}
	if len(nf.events) != 3 {
		t.Fatalf("expected 3 created events, got %d", len(nf.events))
	}
}

func TestCreatePersistsQuote(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	in := validInput()
	in.CheckOut = day(10 + 7) // 7 nights, tier1 discount
	res, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stored := store.reservations[res.ReservationID]
	if stored.BasePrice != 420000 || stored.DiscountAmount != 21000 || stored.TotalPrice != 399000 {
		t.Fatalf("persisted breakdown wrong: %+v", stored)
	}
	if stored.DiscountPercent != 5 || stored.Nights != 7 {
		t.Fatalf("persisted tier wrong: %+v", stored)
	}
	if stored.Source != "site" {
		t.Fatalf("default source = %q", stored.Source)
	}
}

func TestInitiatePaymentGates(t *testing.T) {
	svc, store, gw, _ := newTestService()
	ctx := context.Background()

	res, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	start, err := svc.InitiatePayment(ctx, res.ReservationID)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if start.ConfirmationURL == "" || start.PaymentID == "" {
		t.Fatalf("empty payment start: %+v", start)
	}
	stored := store.reservations[res.ReservationID]
	if stored.PaymentStatus != model.PaymentProcessing || stored.PaymentID == nil {
		t.Fatalf("payment not recorded: %+v", stored)
	}

	// once paid, initiating again is rejected
	if err := store.MarkPaid(ctx, res.ReservationID, "pay_1", testNow); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.InitiatePayment(ctx, res.ReservationID); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("got %v, want ErrAlreadyPaid", err)
	}

	// cancelled bookings cannot start payments
	res2, _ := svc.Create(ctx, validInput())
	if err := store.Cancel(ctx, res2.ReservationID, "", "test"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.InitiatePayment(ctx, res2.ReservationID); !errors.Is(err, ErrBookingCancelled) {
		t.Fatalf("got %v, want ErrBookingCancelled", err)
	}

	// gateway failure surfaces as unavailable
	gw.createErr = errors.New("connection refused")
	res3, _ := svc.Create(ctx, validInput())
	if _, err := svc.InitiatePayment(ctx, res3.ReservationID); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("got %v, want ErrGatewayUnavailable", err)
	}
}

func TestInitiatePaymentAppliesLaggingSuccess(t *testing.T) {
	svc, store, gw, _ := newTestService()
	ctx := context.Background()

	res, _ := svc.Create(ctx, validInput())
	if _, err := svc.InitiatePayment(ctx, res.ReservationID); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	// the guest paid but the webhook has not arrived yet
	gw.paymentStatus = model.PaymentSucceeded
	_, err := svc.InitiatePayment(ctx, res.ReservationID)
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("got %v, want ErrAlreadyPaid", err)
	}
	stored := store.reservations[res.ReservationID]
	if stored.Status != model.BookingConfirmed || stored.PaymentStatus != model.PaymentSucceeded {
		t.Fatalf("lagging success not applied: %+v", stored)
	}
}

func TestWebhookIdempotence(t *testing.T) {
	svc, store, _, nf := newTestService()
	ctx := context.Background()

	res, _ := svc.Create(ctx, validInput())
	created := len(nf.events)

	ev := WebhookEvent{Type: "payment.succeeded", PaymentID: "pay_9", ReservationID: res.ReservationID}
	if err := svc.ApplyWebhook(ctx, ev); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	first := *store.reservations[res.ReservationID]
	if first.Status != model.BookingConfirmed || first.PaymentStatus != model.PaymentSucceeded {
		t.Fatalf("success not applied: %+v", first)
	}
	if first.PaidAt == nil || !first.PaidAt.Equal(testNow) {
		t.Fatalf("paid_at not stamped: %+v", first.PaidAt)
	}
	if len(nf.events) != created+1 {
		t.Fatalf("expected one payment event, got %d", len(nf.events)-created)
	}

	// duplicate delivery is a no-op: same state, no second notification
	if err := svc.ApplyWebhook(ctx, ev); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	second := *store.reservations[res.ReservationID]
	if second.Status != first.Status || second.PaymentStatus != first.PaymentStatus || !second.PaidAt.Equal(*first.PaidAt) {
		t.Fatalf("duplicate apply changed state: %+v vs %+v", first, second)
	}
	if len(nf.events) != created+1 {
		t.Fatalf("duplicate apply fired another event")
	}
}

func TestWebhookDropsUnknownAndCanceled(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	// unknown reservation and missing metadata are acknowledged silently
	if err := svc.ApplyWebhook(ctx, WebhookEvent{Type: "payment.succeeded", PaymentID: "x", ReservationID: 999}); err != nil {
		t.Fatalf("unknown reservation must not error: %v", err)
	}
	if err := svc.ApplyWebhook(ctx, WebhookEvent{Type: "payment.succeeded", PaymentID: "x"}); err != nil {
		t.Fatalf("missing metadata must not error: %v", err)
	}

	res, _ := svc.Create(ctx, validInput())
	if err := svc.ApplyWebhook(ctx, WebhookEvent{Type: "payment.canceled", PaymentID: "x", ReservationID: res.ReservationID}); err != nil {
		t.Fatalf("canceled apply: %v", err)
	}
	stored := store.reservations[res.ReservationID]
	if stored.PaymentStatus != model.PaymentCanceled {
		t.Fatalf("payment.canceled not applied: %+v", stored)
	}
	if stored.Status != model.BookingPending {
		t.Fatalf("booking status must stay untouched, got %s", stored.Status)
	}
}

func TestCancelRefundWindows(t *testing.T) {
	ctx := context.Background()

	setupPaid := func(checkInOffset int) (*Service, *memStore, *fakeGateway, uint64) {
		svc, store, gw, _ := newTestService()
		in := validInput()
		in.CheckIn = day(checkInOffset)
		in.CheckOut = day(checkInOffset + 3)
		res, err := svc.Create(ctx, in)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := store.MarkPaid(ctx, res.ReservationID, "pay_1", testNow); err != nil {
			t.Fatal(err)
		}
		return svc, store, gw, res.ReservationID
	}

	// check-in well beyond 24h: full refund
	svc, store, gw, id := setupPaid(10)
	out, err := svc.Cancel(ctx, id, "plans changed")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out.RefundAmount != 180000 || out.RefundPercent != 100 || out.RefundID == "" {
		t.Fatalf("expected full refund, got %+v", out)
	}
	stored := store.reservations[id]
	if stored.Status != model.BookingCancelled || stored.PaymentStatus != model.PaymentRefunded {
		t.Fatalf("cancel state wrong: %+v", stored)
	}
	if gw.lastRefund != 180000 {
		t.Fatalf("gateway refunded %d", gw.lastRefund)
	}
	if stored.AdminNote == "" {
		t.Fatal("audit note missing")
	}

	// inside the 24h window: total minus one night
	svc, _, gw, id = setupPaid(1) // check-in tomorrow midnight = 12h away
	out, err = svc.Cancel(ctx, id, "")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out.RefundAmount != 120000 {
		t.Fatalf("expected total minus one night (1200.00), got %d", out.RefundAmount)
	}
	if gw.lastRefund != 120000 {
		t.Fatalf("gateway refunded %d", gw.lastRefund)
	}
}

func TestCancelBoundaryAtExactly24Hours(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	in := validInput()
	in.CheckIn = day(2) // midnight June 3rd
	in.CheckOut = day(5)
	res, _ := svc.Create(ctx, in)
	if err := store.MarkPaid(ctx, res.ReservationID, "pay_1", testNow); err != nil {
		t.Fatal(err)
	}

	// pin the clock to exactly 24h before check-in
	svc.Now = func() time.Time { return day(2).Add(-24 * time.Hour) }
	out, err := svc.Cancel(ctx, res.ReservationID, "")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out.RefundAmount != store.reservations[res.ReservationID].TotalPrice {
		t.Fatalf("exactly 24h must be a full refund, got %d", out.RefundAmount)
	}
}

func TestCancelAfterCheckIn(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	// confirmed booking past check-in: refund refused entirely
	in := validInput()
	in.CheckIn = day(-1)
	in.CheckOut = day(2)
	res, _ := svc.Create(ctx, in)
	if err := store.MarkPaid(ctx, res.ReservationID, "pay_1", testNow); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(ctx, res.ReservationID, ""); !errors.Is(err, ErrRefundWindowClosed) {
		t.Fatalf("got %v, want ErrRefundWindowClosed", err)
	}

	// a still-PENDING booking past check-in cancels with zero refund
	res2, _ := svc.Create(ctx, in)
	out, err := svc.Cancel(ctx, res2.ReservationID, "")
	if err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if out.RefundAmount != 0 || out.RefundID != "" {
		t.Fatalf("expected zero refund, got %+v", out)
	}
	stored := store.reservations[res2.ReservationID]
	if stored.Status != model.BookingCancelled {
		t.Fatalf("pending booking not cancelled: %+v", stored)
	}
	if stored.PaymentStatus == model.PaymentRefunded {
		t.Fatal("REFUNDED must only be set when money moved")
	}
}

func TestCancelAbortsWhenRefundFails(t *testing.T) {
	svc, store, gw, _ := newTestService()
	ctx := context.Background()

	res, _ := svc.Create(ctx, validInput())
	if err := store.MarkPaid(ctx, res.ReservationID, "pay_1", testNow); err != nil {
		t.Fatal(err)
	}
	gw.refundErr = errors.New("gateway 500")

	_, err := svc.Cancel(ctx, res.ReservationID, "")
	if !errors.Is(err, ErrRefundFailed) {
		t.Fatalf("got %v, want ErrRefundFailed", err)
	}
	stored := store.reservations[res.ReservationID]
	if stored.Status == model.BookingCancelled {
		t.Fatal("cancellation must abort when the refund fails")
	}
}

func TestCancelTerminalGates(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	res, _ := svc.Create(ctx, validInput())
	if _, err := svc.Cancel(ctx, res.ReservationID, ""); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, res.ReservationID, ""); !errors.Is(err, ErrBookingCancelled) {
		t.Fatalf("got %v, want ErrBookingCancelled", err)
	}

	res2, _ := svc.Create(ctx, validInput())
	store.reservations[res2.ReservationID].Status = model.BookingCheckedOut
	if _, err := svc.Cancel(ctx, res2.ReservationID, ""); !errors.Is(err, ErrRefundWindowClosed) {
		t.Fatalf("got %v, want ErrRefundWindowClosed", err)
	}
}

func TestSweepRules(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	mk := func(status, payment string, createdAgo time.Duration, checkIn, checkOut time.Time) uint64 {
		store.nextID++
		id := store.nextID
		store.reservations[id] = &model.Reservation{
			ID: id, CategoryID: 1, Status: status, PaymentStatus: payment,
			CreatedAt: testNow.Add(-createdAgo), CheckIn: checkIn, CheckOut: checkOut,
			Nights: 3,
		}
		return id
	}

	stale := mk(model.BookingPending, model.PaymentPending, 31*time.Minute, day(10), day(13))
	fresh := mk(model.BookingPending, model.PaymentPending, 29*time.Minute, day(10), day(13))
	pastDue := mk(model.BookingConfirmed, model.PaymentSucceeded, 96*time.Hour, day(-4), day(-1))
	noShow := mk(model.BookingConfirmed, model.PaymentSucceeded, 48*time.Hour, day(-2), day(2)) // check-in 30h ago (spec scenario 6: 36h)
	untouched := mk(model.BookingConfirmed, model.PaymentSucceeded, time.Hour, day(3), day(6))

	out, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if out.Expired != 1 || out.CheckedOut != 1 || out.NoShows != 1 {
		t.Fatalf("sweep counts wrong: %+v", out)
	}
	if got := store.reservations[stale].Status; got != model.BookingCancelled {
		t.Errorf("stale pending: got %s", got)
	}
	if store.reservations[stale].AdminNote == "" {
		t.Error("stale pending: audit note missing")
	}
	if got := store.reservations[fresh].Status; got != model.BookingPending {
		t.Errorf("29-minute-old pending must be untouched, got %s", got)
	}
	if got := store.reservations[pastDue].Status; got != model.BookingCheckedOut {
		t.Errorf("past due: got %s", got)
	}
	if got := store.reservations[noShow].Status; got != model.BookingNoShow {
		t.Errorf("no-show: got %s", got)
	}
	if got := store.reservations[untouched].Status; got != model.BookingConfirmed {
		t.Errorf("future stay must be untouched, got %s", got)
	}

	// a second run finds nothing: the rules never double-apply
	out, err = svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if out.Expired != 0 || out.CheckedOut != 0 || out.NoShows != 0 {
		t.Fatalf("second sweep must be a no-op, got %+v", out)
	}
}

func TestAuditFindsInconsistentPairings(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	store.nextID++
	store.reservations[store.nextID] = &model.Reservation{
		ID: store.nextID, Status: model.BookingPending, PaymentStatus: model.PaymentSucceeded,
	}
	res, _ := svc.Create(ctx, validInput())

	bad, err := svc.Audit(ctx)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(bad) != 1 {
		t.Fatalf("expected 1 inconsistent reservation, got %d", len(bad))
	}
	if bad[0].ID == res.ReservationID {
		t.Fatal("audit flagged a healthy reservation")
	}
}
