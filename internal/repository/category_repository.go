package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hostel-booking/internal/model"
)

// CategoryRepo reads room categories.  Categories are written by the
// admin panel, never by the booking engine, so this repo is read-only.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo returns a new CategoryRepo bound to the given database.
func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryColumns = `id, name, slug, price_per_night, beds, max_guests,
       total_units, is_active, women_only, sort_order, created_at, updated_at`

func scanCategory(row *sql.Row) (*model.RoomCategory, error) {
	var c model.RoomCategory
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.PricePerNight, &c.Beds, &c.MaxGuests,
		&c.TotalUnits, &c.IsActive, &c.WomenOnly, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID returns the category with the given primary key, or
// ErrNotFound when it does not exist.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*model.RoomCategory, error) {
	const q = `SELECT ` + categoryColumns + ` FROM room_categories WHERE id = ?`
	return scanCategory(r.db.QueryRowContext(ctx, q, id))
}

// GetBySlug returns the category with the given URL slug, or
// ErrNotFound when it does not exist.
func (r *CategoryRepo) GetBySlug(ctx context.Context, slug string) (*model.RoomCategory, error) {
	const q = `SELECT ` + categoryColumns + ` FROM room_categories WHERE slug = ?`
	return scanCategory(r.db.QueryRowContext(ctx, q, slug))
}

// ListActive returns all active categories in display order.
func (r *CategoryRepo) ListActive(ctx context.Context) ([]model.RoomCategory, error) {
	const q = `SELECT ` + categoryColumns + `
               FROM room_categories
               WHERE is_active = 1
               ORDER BY sort_order, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cats := make([]model.RoomCategory, 0)
	for rows.Next() {
		var c model.RoomCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.PricePerNight, &c.Beds, &c.MaxGuests,
			&c.TotalUnits, &c.IsActive, &c.WomenOnly, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cats, nil
}
