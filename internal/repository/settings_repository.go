package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hostel-booking/internal/model"
)

// SettingsRepo reads the single global hotel_settings row (id = 1).
type SettingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo returns a new SettingsRepo bound to the given database.
func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Get returns the active settings.  When the row has never been
// created, the built-in defaults are returned instead of an error so
// the engine keeps quoting prices.
func (r *SettingsRepo) Get(ctx context.Context) (model.HotelSettings, error) {
	const q = `SELECT tier1_percent, tier2_percent, check_in_time, check_out_time, updated_at
               FROM hotel_settings WHERE id = 1`
	var s model.HotelSettings
	err := r.db.QueryRowContext(ctx, q).Scan(
		&s.Tier1Percent, &s.Tier2Percent, &s.CheckInTime, &s.CheckOutTime, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.HotelSettings{}, err
	}
	return s, nil
}
