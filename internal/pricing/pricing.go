// Package pricing contains the pure price and discount calculations of
// the booking engine.  Nothing in this package touches the database or
// the clock; all inputs are plain values supplied by the caller.
package pricing

import (
	"math"
	"time"
)

// Nights returns the number of calendar nights between two dates,
// rounded up: the absolute delta in days, with any partial day counting
// as a whole extra night.  Same-day in/out returns 0.  The absolute
// value keeps an old client behavior where the two dates could arrive
// swapped; handlers reject inverted ranges before they get here.
func Nights(checkIn, checkOut time.Time) uint32 {
	hours := checkOut.Sub(checkIn).Hours()
	if hours < 0 {
		hours = -hours
	}
	return uint32(math.Ceil(hours / 24))
}

// DiscountTier returns the discount percent that applies to a stay of
// the given length: 0 below 7 nights, tier1 from 7 to 29 nights and
// tier2 from 30 nights.  The percentages come from HotelSettings so
// the thresholds stay configurable without a deploy.
func DiscountTier(nights uint32, tier1, tier2 uint32) uint32 {
	switch {
	case nights >= 30:
		return tier2
	case nights >= 7:
		return tier1
	default:
		return 0
	}
}

// Quote is the price breakdown for a stay.  All amounts are in kopeks.
type Quote struct {
	BasePrice       int64  `json:"base_price"`
	DiscountPercent uint32 `json:"discount_percent"`
	DiscountAmount  int64  `json:"discount_amount"`
	TotalPrice      int64  `json:"total_price"`
}

// TotalPrice computes the full breakdown for a stay.  The base price is
// the nightly rate times the number of nights; the discount amount is
// basePrice*percent/100 rounded half-up to the nearest kopek; the total
// is base minus discount.  Zero nights yields an all-zero quote.
func TotalPrice(pricePerNight int64, nights uint32, discountPercent uint32) Quote {
	base := pricePerNight * int64(nights)
	// round half-up: (base*pct + 50) / 100 in integer arithmetic
	discount := (base*int64(discountPercent) + 50) / 100
	return Quote{
		BasePrice:       base,
		DiscountPercent: discountPercent,
		DiscountAmount:  discount,
		TotalPrice:      base - discount,
	}
}
