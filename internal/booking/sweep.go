package booking

import (
	"context"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
)

// SweepResult counts the reservations transitioned per rule.
type SweepResult struct {
	Expired    int64 `json:"expired"`
	CheckedOut int64 `json:"checked_out"`
	NoShows    int64 `json:"no_shows"`
}

// Sweep normalizes stale reservation states by wall-clock rules, in a
// fixed order:
//
//  1. PENDING/PENDING reservations older than 30 minutes are cancelled;
//  2. CONFIRMED/CHECKED_IN reservations past their check-out date are
//     checked out;
//  3. CONFIRMED reservations more than 24 hours past check-in whose
//     check-out is still ahead become NO_SHOW.
//
// The rules are mutually exclusive by their status and date predicates,
// so a reservation can match at most one per run.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	var out SweepResult
	now := s.now()
	today := midnightUTC(now)

	expired, err := s.Reservations.ExpireStalePending(ctx, now.Add(-30*time.Minute),
		"auto-cancelled: unpaid for 30 minutes")
	if err != nil {
		return out, err
	}
	out.Expired = expired

	checkedOut, err := s.Reservations.CheckoutPastDue(ctx, today)
	if err != nil {
		return out, err
	}
	out.CheckedOut = checkedOut

	noShows, err := s.Reservations.MarkNoShows(ctx, now.Add(-24*time.Hour), today)
	if err != nil {
		return out, err
	}
	out.NoShows = noShows

	return out, nil
}

// Audit returns reservations whose booking/payment status pairing is
// inconsistent, e.g. a SUCCEEDED payment on a still-PENDING booking or
// a CONFIRMED booking whose payment was CANCELED.  Overbooking and
// webhook races are rare; this is how staff finds them.
func (s *Service) Audit(ctx context.Context) ([]model.Reservation, error) {
	return s.Reservations.ListInconsistent(ctx)
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
