package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/booking"
	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

// AdminHandler serves the staff endpoints behind AdminAuth: blocked
// date management, the manual sweep trigger, the recent-bookings view
// and the consistency audit.
type AdminHandler struct {
	Svc    *booking.Service
	Blocks *repository.BlockedDateRepo
}

// NewAdminHandler wires the booking service and the block repository.
func NewAdminHandler(svc *booking.Service, blocks *repository.BlockedDateRepo) *AdminHandler {
	return &AdminHandler{Svc: svc, Blocks: blocks}
}

// blockedDateView serializes a block with half-open date strings.
type blockedDateView struct {
	ID         uint64  `json:"id"`
	CategoryID *uint64 `json:"category_id"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Reason     string  `json:"reason"`
	CreatedAt  string  `json:"created_at"`
}

func newBlockedDateView(b model.BlockedDate) blockedDateView {
	return blockedDateView{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		StartDate:  b.StartDate.Format(dateFmt),
		EndDate:    b.EndDate.Format(dateFmt),
		Reason:     b.Reason,
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ListBlockedDates returns every block ordered by start date.
// GET /v1/admin/blocked-dates
func (h *AdminHandler) ListBlockedDates(c echo.Context) error {
	blocks, err := h.Blocks.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]blockedDateView, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, newBlockedDateView(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"blocked_dates": out})
}

type createBlockRequest struct {
	CategoryID *uint64 `json:"category_id"` // nil blocks every category
	StartDate  string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason     string  `json:"reason" validate:"max=500"`
}

// CreateBlockedDate inserts a new block.  The range is half-open, the
// same convention reservations use.
// POST /v1/admin/blocked-dates
func (h *AdminHandler) CreateBlockedDate(c echo.Context) error {
	var req createBlockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	start, err := time.ParseInLocation(dateFmt, req.StartDate, time.UTC)
	if err != nil {
		return writeError(c, &booking.ValidationError{Fields: map[string]string{"start_date": "must be a date in YYYY-MM-DD format"}})
	}
	end, err := time.ParseInLocation(dateFmt, req.EndDate, time.UTC)
	if err != nil {
		return writeError(c, &booking.ValidationError{Fields: map[string]string{"end_date": "must be a date in YYYY-MM-DD format"}})
	}
	if !end.After(start) {
		return writeError(c, &booking.ValidationError{Fields: map[string]string{"end_date": "must be after start_date"}})
	}

	block := &model.BlockedDate{
		CategoryID: req.CategoryID,
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
	}
	if err := h.Blocks.Create(c.Request().Context(), block); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, newBlockedDateView(*block))
}

// DeleteBlockedDate removes a block by id.
// DELETE /v1/admin/blocked-dates/:id
func (h *AdminHandler) DeleteBlockedDate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Blocks.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "blocked date not found"})
		}
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TriggerSweep runs the janitor rules immediately and reports the
// per-rule counts.  Useful after restoring a backup or fixing the clock.
// POST /v1/admin/sweep
func (h *AdminHandler) TriggerSweep(c echo.Context) error {
	result, err := h.Svc.Sweep(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// adminReservationView extends the public projection with the audit
// fields staff needs.
type adminReservationView struct {
	reservationView
	GuestPhone string  `json:"guest_phone"`
	GuestEmail string  `json:"guest_email"`
	PaymentID  *string `json:"payment_id"`
	Comment    string  `json:"comment,omitempty"`
	AdminNote  string  `json:"admin_note,omitempty"`
	Source     string  `json:"source"`
}

func newAdminReservationView(r *model.Reservation) adminReservationView {
	return adminReservationView{
		reservationView: newReservationView(r),
		GuestPhone:      r.GuestPhone,
		GuestEmail:      r.GuestEmail,
		PaymentID:       r.PaymentID,
		Comment:         r.Comment,
		AdminNote:       r.AdminNote,
		Source:          r.Source,
	}
}

// ListBookings returns the most recent reservations.
// GET /v1/admin/bookings?limit=100
func (h *AdminHandler) ListBookings(c echo.Context) error {
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			return writeError(c, &booking.ValidationError{Fields: map[string]string{"limit": "must be a positive integer"}})
		}
		limit = n
	}
	list, err := h.Svc.Reservations.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]adminReservationView, 0, len(list))
	for i := range list {
		out = append(out, newAdminReservationView(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// RunAudit lists reservations whose booking/payment status pairing is
// inconsistent so staff can reconcile them.
// POST /v1/admin/audit
func (h *AdminHandler) RunAudit(c echo.Context) error {
	list, err := h.Svc.Audit(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]adminReservationView, 0, len(list))
	for i := range list {
		out = append(out, newAdminReservationView(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"inconsistent": out, "count": len(out)})
}
