package model

import "time"

// RoomCategory represents a bookable room type such as a dorm bed or
// a private twin room.  Categories are managed by the admin panel and
// are read-only from the booking engine's perspective.  This struct
// corresponds to a row in the `room_categories` table.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – display name shown on the booking form.
//  Slug          – unique URL slug; legacy clients identify categories by it.
//  PricePerNight – nightly rate in kopeks (minor currency units).
//  Beds          – number of beds in one unit.
//  MaxGuests     – maximum guests allowed per reservation.
//  TotalUnits    – how many units of this category can be booked at once.
//  IsActive      – whether the category is offered on the site.
//  WomenOnly     – whether the category is restricted to female guests.
//  SortOrder     – display ordering on the site.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type RoomCategory struct {
	ID            uint64    // room_categories.id
	Name          string    // room_categories.name
	Slug          string    // room_categories.slug
	PricePerNight int64     // room_categories.price_per_night
	Beds          uint32    // room_categories.beds
	MaxGuests     uint32    // room_categories.max_guests
	TotalUnits    uint32    // room_categories.total_units
	IsActive      bool      // room_categories.is_active
	WomenOnly     bool      // room_categories.women_only
	SortOrder     int32     // room_categories.sort_order
	CreatedAt     time.Time // room_categories.created_at
	UpdatedAt     time.Time // room_categories.updated_at
}
