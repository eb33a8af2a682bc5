package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/booking"
	"github.com/iliyamo/hostel-booking/internal/model"
)

const dateFmt = "2006-01-02"

// PublicHandler serves the guest-facing endpoints: category listing,
// availability quotes and the reservation lifecycle.
type PublicHandler struct {
	Svc *booking.Service
}

// NewPublicHandler wires the booking service into the public surface.
func NewPublicHandler(svc *booking.Service) *PublicHandler { return &PublicHandler{Svc: svc} }

// categoryView is the sanitized category projection shown to guests.
type categoryView struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	PricePerNight int64  `json:"price_per_night"`
	Beds          uint32 `json:"beds"`
	MaxGuests     uint32 `json:"max_guests"`
	WomenOnly     bool   `json:"women_only"`
}

// GetCategories lists active categories in display order.
func (h *PublicHandler) GetCategories(c echo.Context) error {
	cats, err := h.Svc.Categories.ListActive(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]categoryView, 0, len(cats))
	for _, cat := range cats {
		out = append(out, categoryView{
			ID:            cat.ID,
			Name:          cat.Name,
			Slug:          cat.Slug,
			PricePerNight: cat.PricePerNight,
			Beds:          cat.Beds,
			MaxGuests:     cat.MaxGuests,
			WomenOnly:     cat.WomenOnly,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": out})
}

// parseRange pulls check_in/check_out query parameters, enforcing the
// YYYY-MM-DD format and forward date order.
func parseRange(c echo.Context) (checkIn, checkOut time.Time, ve *booking.ValidationError) {
	fields := map[string]string{}
	var err error
	checkIn, err = time.ParseInLocation(dateFmt, c.QueryParam("check_in"), time.UTC)
	if err != nil {
		fields["check_in"] = "must be a date in YYYY-MM-DD format"
	}
	checkOut, err = time.ParseInLocation(dateFmt, c.QueryParam("check_out"), time.UTC)
	if err != nil {
		fields["check_out"] = "must be a date in YYYY-MM-DD format"
	}
	if len(fields) == 0 && !checkOut.After(checkIn) {
		fields["check_out"] = "must be after check_in"
	}
	if len(fields) > 0 {
		return time.Time{}, time.Time{}, &booking.ValidationError{Fields: fields}
	}
	return checkIn, checkOut, nil
}

// GetAvailability answers whether the category has a free unit for the
// requested range and quotes the price.
// GET /v1/availability?category=dorm-8&check_in=...&check_out=...&guests=2
func (h *PublicHandler) GetAvailability(c echo.Context) error {
	category := c.QueryParam("category")
	if category == "" {
		return writeError(c, &booking.ValidationError{Fields: map[string]string{"category": "is required"}})
	}
	checkIn, checkOut, ve := parseRange(c)
	if ve != nil {
		return writeError(c, ve)
	}
	guests := uint64(1)
	if g := c.QueryParam("guests"); g != "" {
		var err error
		guests, err = strconv.ParseUint(g, 10, 32)
		if err != nil || guests == 0 {
			return writeError(c, &booking.ValidationError{Fields: map[string]string{"guests": "must be a positive integer"}})
		}
	}

	av, err := h.Svc.CheckAvailability(c.Request().Context(), category, checkIn, checkOut, uint32(guests))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

// createBookingRequest is the booking form submission.
type createBookingRequest struct {
	Category   string `json:"category" validate:"required"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
	GuestName  string `json:"guest_name" validate:"required,min=2,max=150"`
	GuestPhone string `json:"guest_phone" validate:"required,min=5,max=32"`
	GuestEmail string `json:"guest_email" validate:"required,email"`
	Guests     uint32 `json:"guests" validate:"required,min=1"`
	Comment    string `json:"comment" validate:"max=1000"`
	Source     string `json:"source" validate:"omitempty,max=32"`
}

// CreateBooking creates a PENDING reservation with a locked-in price.
// POST /v1/bookings
func (h *PublicHandler) CreateBooking(c echo.Context) error {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	checkIn, err := time.ParseInLocation(dateFmt, req.CheckIn, time.UTC)
	if err != nil {
		return writeError(c, &booking.ValidationError{Fields: map[string]string{"check_in": "must be a date in YYYY-MM-DD format"}})
	}
	checkOut, err := time.ParseInLocation(dateFmt, req.CheckOut, time.UTC)
	if err != nil {
		return writeError(c, &booking.ValidationError{Fields: map[string]string{"check_out": "must be a date in YYYY-MM-DD format"}})
	}

	res, err := h.Svc.Create(c.Request().Context(), booking.CreateInput{
		Category:  req.Category,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		GuestName: req.GuestName,
		Phone:     req.GuestPhone,
		Email:     req.GuestEmail,
		Guests:    req.Guests,
		Comment:   req.Comment,
		Source:    req.Source,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// reservationView is the public projection of a reservation.  Internal
// audit fields (admin_note, source) stay out of guest responses.
type reservationView struct {
	ID              uint64  `json:"id"`
	CategoryID      uint64  `json:"category_id"`
	CheckIn         string  `json:"check_in"`
	CheckOut        string  `json:"check_out"`
	Nights          uint32  `json:"nights"`
	GuestName       string  `json:"guest_name"`
	Guests          uint32  `json:"guests"`
	BasePrice       int64   `json:"base_price"`
	DiscountPercent uint32  `json:"discount_percent"`
	DiscountAmount  int64   `json:"discount_amount"`
	TotalPrice      int64   `json:"total_price"`
	Status          string  `json:"status"`
	PaymentStatus   string  `json:"payment_status"`
	PaidAt          *string `json:"paid_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func newReservationView(r *model.Reservation) reservationView {
	v := reservationView{
		ID:              r.ID,
		CategoryID:      r.CategoryID,
		CheckIn:         r.CheckIn.Format(dateFmt),
		CheckOut:        r.CheckOut.Format(dateFmt),
		Nights:          r.Nights,
		GuestName:       r.GuestName,
		Guests:          r.Guests,
		BasePrice:       r.BasePrice,
		DiscountPercent: r.DiscountPercent,
		DiscountAmount:  r.DiscountAmount,
		TotalPrice:      r.TotalPrice,
		Status:          r.Status,
		PaymentStatus:   r.PaymentStatus,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.PaidAt != nil {
		s := r.PaidAt.UTC().Format(time.RFC3339)
		v.PaidAt = &s
	}
	return v
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &booking.ValidationError{Fields: map[string]string{"id": "must be a positive integer"}}
	}
	return id, nil
}

// GetBooking returns a single reservation.
// GET /v1/bookings/:id
func (h *PublicHandler) GetBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationView(res))
}

// PayBooking creates a gateway payment and returns the confirmation URL
// the guest is redirected to.
// POST /v1/bookings/:id/pay
func (h *PublicHandler) PayBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	start, err := h.Svc.InitiatePayment(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, start)
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// CancelBooking cancels a reservation, refunding per the 24-hour rule.
// POST /v1/bookings/:id/cancel
func (h *PublicHandler) CancelBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req cancelRequest
	// body is optional; a missing or empty body just means no reason
	_ = c.Bind(&req)
	result, err := h.Svc.Cancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
