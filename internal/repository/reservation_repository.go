package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
)

// ReservationRepo provides CRUD and the aggregate queries the booking
// engine runs over the reservations table.  Date columns are DATE and
// are passed as "2006-01-02" strings; all timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const dateFmt = "2006-01-02"

const reservationColumns = `id, category_id, check_in, check_out, nights,
       guest_name, guest_phone, guest_email, guests,
       base_price, discount_percent, discount_amount, total_price,
       status, payment_status, payment_id, paid_at,
       comment, admin_note, source, created_at, updated_at`

// occupyingIn is the status predicate for reservations that still count
// against capacity.  Kept as a constant so the overlap query and any
// future reporting share one definition.
const occupyingIn = `status IN ('PENDING', 'CONFIRMED', 'CHECKED_IN')`

func scanReservation(scan func(dest ...any) error) (*model.Reservation, error) {
	var res model.Reservation
	var paymentID sql.NullString
	var paidAt sql.NullTime
	err := scan(&res.ID, &res.CategoryID, &res.CheckIn, &res.CheckOut, &res.Nights,
		&res.GuestName, &res.GuestPhone, &res.GuestEmail, &res.Guests,
		&res.BasePrice, &res.DiscountPercent, &res.DiscountAmount, &res.TotalPrice,
		&res.Status, &res.PaymentStatus, &paymentID, &paidAt,
		&res.Comment, &res.AdminNote, &res.Source, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if paymentID.Valid {
		p := paymentID.String
		res.PaymentID = &p
	}
	if paidAt.Valid {
		t := paidAt.Time
		res.PaidAt = &t
	}
	return &res, nil
}

// Create inserts a new reservation and populates the generated ID and
// database-assigned timestamps on the provided record.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
               (category_id, check_in, check_out, nights,
                guest_name, guest_phone, guest_email, guests,
                base_price, discount_percent, discount_amount, total_price,
                status, payment_status, comment, source)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		res.CategoryID, res.CheckIn.Format(dateFmt), res.CheckOut.Format(dateFmt), res.Nights,
		res.GuestName, res.GuestPhone, res.GuestEmail, res.Guests,
		res.BasePrice, res.DiscountPercent, res.DiscountAmount, res.TotalPrice,
		res.Status, res.PaymentStatus, res.Comment, res.Source)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the row to pick up created_at/updated_at defaults.
	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// GetByID returns the reservation with the given ID, or ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	return scanReservation(row.Scan)
}

// CountOverlapping counts occupying reservations for the category whose
// half-open stay [check_in, check_out) intersects the given range.  Two
// half-open ranges [a,b) and [c,d) overlap iff a < d AND c < b; the
// single-inequality form avoids the boundary-date bugs the three OR'd
// conditions invite.
func (r *ReservationRepo) CountOverlapping(ctx context.Context, categoryID uint64, checkIn, checkOut time.Time) (uint32, error) {
	const q = `SELECT COUNT(*)
               FROM reservations
               WHERE category_id = ?
                 AND ` + occupyingIn + `
                 AND check_in < ? AND ? < check_out`
	var n uint32
	err := r.db.QueryRowContext(ctx, q, categoryID,
		checkOut.Format(dateFmt), checkIn.Format(dateFmt)).Scan(&n)
	return n, err
}

// SetPaymentInitiated stores the gateway payment reference and moves
// the payment status to PROCESSING.
func (r *ReservationRepo) SetPaymentInitiated(ctx context.Context, id uint64, paymentID string) error {
	const q = `UPDATE reservations SET payment_status = 'PROCESSING', payment_id = ? WHERE id = ?`
	return r.exec(ctx, q, paymentID, id)
}

// MarkPaid transitions to CONFIRMED/SUCCEEDED, stamps paid_at and
// records the receipt reference reported by the gateway.
func (r *ReservationRepo) MarkPaid(ctx context.Context, id uint64, paymentID string, paidAt time.Time) error {
	const q = `UPDATE reservations
               SET status = 'CONFIRMED', payment_status = 'SUCCEEDED', payment_id = ?, paid_at = ?
               WHERE id = ?`
	return r.exec(ctx, q, paymentID, paidAt.UTC().Format("2006-01-02 15:04:05"), id)
}

// MarkPaymentCanceled records a canceled payment without touching the
// booking status; the janitor expires the booking later if it stays
// unpaid.
func (r *ReservationRepo) MarkPaymentCanceled(ctx context.Context, id uint64) error {
	const q = `UPDATE reservations SET payment_status = 'CANCELED' WHERE id = ?`
	return r.exec(ctx, q, id)
}

// Cancel sets the booking status to CANCELLED, optionally updates the
// payment status (pass "" to leave it alone) and appends an audit note.
func (r *ReservationRepo) Cancel(ctx context.Context, id uint64, paymentStatus, note string) error {
	if paymentStatus != "" {
		const q = `UPDATE reservations
                   SET status = 'CANCELLED', payment_status = ?,
                       admin_note = CONCAT_WS('\n', NULLIF(admin_note, ''), ?)
                   WHERE id = ?`
		return r.exec(ctx, q, paymentStatus, note, id)
	}
	const q = `UPDATE reservations
               SET status = 'CANCELLED',
                   admin_note = CONCAT_WS('\n', NULLIF(admin_note, ''), ?)
               WHERE id = ?`
	return r.exec(ctx, q, note, id)
}

func (r *ReservationRepo) exec(ctx context.Context, q string, args ...any) error {
	result, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireStalePending cancels PENDING/PENDING reservations created
// before the cutoff, appending the given audit note, and returns how
// many rows changed.
func (r *ReservationRepo) ExpireStalePending(ctx context.Context, cutoff time.Time, note string) (int64, error) {
	const q = `UPDATE reservations
               SET status = 'CANCELLED',
                   admin_note = CONCAT_WS('\n', NULLIF(admin_note, ''), ?)
               WHERE status = 'PENDING' AND payment_status = 'PENDING' AND created_at < ?`
	return r.sweep(ctx, q, note, cutoff.UTC().Format("2006-01-02 15:04:05"))
}

// CheckoutPastDue closes out stays whose check-out date has passed.
func (r *ReservationRepo) CheckoutPastDue(ctx context.Context, today time.Time) (int64, error) {
	const q = `UPDATE reservations
               SET status = 'CHECKED_OUT'
               WHERE status IN ('CONFIRMED', 'CHECKED_IN') AND check_out <= ?`
	return r.sweep(ctx, q, today.Format(dateFmt))
}

// MarkNoShows flags CONFIRMED reservations whose check-in is before the
// cutoff and whose check-out is still ahead of today.
func (r *ReservationRepo) MarkNoShows(ctx context.Context, cutoff, today time.Time) (int64, error) {
	const q = `UPDATE reservations
               SET status = 'NO_SHOW'
               WHERE status = 'CONFIRMED' AND check_in < ? AND check_out > ?`
	return r.sweep(ctx, q, cutoff.UTC().Format("2006-01-02 15:04:05"), today.Format(dateFmt))
}

func (r *ReservationRepo) sweep(ctx context.Context, q string, args ...any) (int64, error) {
	result, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListRecent returns the newest reservations for the admin panel.
func (r *ReservationRepo) ListRecent(ctx context.Context, limit int) ([]model.Reservation, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY created_at DESC LIMIT ?`
	return r.list(ctx, q, limit)
}

// ListInconsistent returns reservations whose status/payment_status
// pairing violates the lifecycle invariants: a SUCCEEDED payment on a
// still-PENDING booking, or a CONFIRMED booking whose payment was
// cancelled or refunded.
func (r *ReservationRepo) ListInconsistent(ctx context.Context) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
          FROM reservations
          WHERE (payment_status = 'SUCCEEDED' AND status = 'PENDING')
             OR (payment_status IN ('CANCELED', 'REFUNDED') AND status = 'CONFIRMED')
          ORDER BY id`
	return r.list(ctx, q)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
