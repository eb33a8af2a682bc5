package model

import "time"

// HotelSettings is the single global configuration record (id = 1).
// It holds the discount tier percentages and the check-in/check-out
// times printed in confirmation messages.  When the row is missing the
// repository returns DefaultSettings().
//
// Fields:
//  Tier1Percent – discount percent for stays of 7 to 29 nights.
//  Tier2Percent – discount percent for stays of 30 nights and longer.
//  CheckInTime  – earliest check-in time of day ("14:00").
//  CheckOutTime – latest check-out time of day ("12:00").
//  UpdatedAt    – last update timestamp.
type HotelSettings struct {
	Tier1Percent uint32    // hotel_settings.tier1_percent
	Tier2Percent uint32    // hotel_settings.tier2_percent
	CheckInTime  string    // hotel_settings.check_in_time
	CheckOutTime string    // hotel_settings.check_out_time
	UpdatedAt    time.Time // hotel_settings.updated_at
}

// DefaultSettings returns the built-in discount configuration used when
// no hotel_settings row exists yet.
func DefaultSettings() HotelSettings {
	return HotelSettings{
		Tier1Percent: 5,
		Tier2Percent: 10,
		CheckInTime:  "14:00",
		CheckOutTime: "12:00",
	}
}
