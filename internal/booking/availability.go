package booking

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
	"github.com/iliyamo/hostel-booking/internal/pricing"
	"github.com/iliyamo/hostel-booking/internal/repository"
)

// Availability is the combined answer for a category and date range.
// Price and availability travel together so the booking form never has
// to make a second round trip.
type Availability struct {
	Available      bool          `json:"available"`
	AvailableUnits uint32        `json:"available_units"`
	Reason         string        `json:"reason,omitempty"`
	CategoryID     uint64        `json:"category_id"`
	CategoryName   string        `json:"category_name"`
	Nights         uint32        `json:"nights"`
	Quote          pricing.Quote `json:"price"`
}

// resolveCategory looks a category up by numeric id first and falls
// back to slug.  Two generations of the booking form identify
// categories differently and both must keep working.
func (s *Service) resolveCategory(ctx context.Context, idOrSlug string) (*model.RoomCategory, error) {
	if id, err := strconv.ParseUint(idOrSlug, 10, 64); err == nil && id > 0 {
		cat, err := s.Categories.GetByID(ctx, id)
		if err == nil {
			return cat, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// fall through to slug lookup: some legacy slugs are numeric
	}
	cat, err := s.Categories.GetBySlug(ctx, idOrSlug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// CheckAvailability decides whether the category has a free unit for
// the half-open range [checkIn, checkOut) and quotes the price for the
// stay.  Capacity math can say yes while an administrative block says
// no; the block always wins.  The result is advisory: Create re-runs
// the overlap count right before inserting.
func (s *Service) CheckAvailability(ctx context.Context, idOrSlug string, checkIn, checkOut time.Time, guests uint32) (*Availability, error) {
	cat, err := s.resolveCategory(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	nights := pricing.Nights(checkIn, checkOut)
	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	percent := pricing.DiscountTier(nights, settings.Tier1Percent, settings.Tier2Percent)
	quote := pricing.TotalPrice(cat.PricePerNight, nights, percent)

	av := &Availability{
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Nights:       nights,
		Quote:        quote,
	}

	if guests > cat.MaxGuests {
		av.Reason = "capacity exceeded"
		return av, nil
	}

	overlap, err := s.Reservations.CountOverlapping(ctx, cat.ID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if overlap < cat.TotalUnits {
		av.AvailableUnits = cat.TotalUnits - overlap
	}

	blocked, err := s.Blocks.CountBlocking(ctx, cat.ID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	av.Available = av.AvailableUnits > 0 && blocked == 0
	if !av.Available && av.Reason == "" {
		if blocked > 0 {
			av.Reason = "dates are blocked"
		} else {
			av.Reason = "no free units"
		}
	}
	return av, nil
}
