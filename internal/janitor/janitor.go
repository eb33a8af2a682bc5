// Package janitor runs the periodic reservation sweep: expiring stale
// unpaid bookings, checking out past-due stays and flagging no-shows.
package janitor

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/hostel-booking/internal/booking"
)

// Run executes the sweep immediately and then on every tick until the
// context is cancelled.  It is meant to be started as a goroutine from
// main; sweep failures are logged and the loop keeps going.
func Run(ctx context.Context, svc *booking.Service, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	sweep(ctx, svc)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("janitor: stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			sweep(ctx, svc)
		}
	}
}

func sweep(ctx context.Context, svc *booking.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	out, err := svc.Sweep(runCtx)
	if err != nil {
		log.Printf("janitor: sweep failed: %v", err)
		return
	}
	if out.Expired > 0 || out.CheckedOut > 0 || out.NoShows > 0 {
		log.Printf("janitor: expired=%d checked_out=%d no_shows=%d", out.Expired, out.CheckedOut, out.NoShows)
	}
}
