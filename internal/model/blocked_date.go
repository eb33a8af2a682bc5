package model

import "time"

// BlockedDate is an administrative override that removes a date range
// from availability regardless of what the capacity math says.  When
// CategoryID is nil the block applies to every category (for example a
// full-building renovation).
//
// Fields:
//  ID         – primary key identifier.
//  CategoryID – category the block applies to, nil for global blocks.
//  StartDate  – first blocked date (inclusive).
//  EndDate    – last blocked date (exclusive, half-open like stays).
//  Reason     – free-text note shown in the admin panel.
//  CreatedAt  – creation timestamp.
type BlockedDate struct {
	ID         uint64    // blocked_dates.id
	CategoryID *uint64   // blocked_dates.category_id (nullable)
	StartDate  time.Time // blocked_dates.start_date
	EndDate    time.Time // blocked_dates.end_date
	Reason     string    // blocked_dates.reason
	CreatedAt  time.Time // blocked_dates.created_at
}
