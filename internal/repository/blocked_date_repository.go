package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/hostel-booking/internal/model"
)

// BlockedDateRepo manages administrative date blocks.  A block with a
// NULL category applies to the whole building.
type BlockedDateRepo struct {
	db *sql.DB
}

// NewBlockedDateRepo returns a new BlockedDateRepo bound to the given database.
func NewBlockedDateRepo(db *sql.DB) *BlockedDateRepo { return &BlockedDateRepo{db: db} }

// CountBlocking counts blocks intersecting the half-open range that
// target the given category or are global.  Block ranges use the same
// half-open semantics as stays.
func (r *BlockedDateRepo) CountBlocking(ctx context.Context, categoryID uint64, checkIn, checkOut time.Time) (uint32, error) {
	const q = `SELECT COUNT(*)
               FROM blocked_dates
               WHERE (category_id = ? OR category_id IS NULL)
                 AND start_date < ? AND ? < end_date`
	var n uint32
	err := r.db.QueryRowContext(ctx, q, categoryID,
		checkOut.Format(dateFmt), checkIn.Format(dateFmt)).Scan(&n)
	return n, err
}

// Create inserts a new block and populates the generated ID.
func (r *BlockedDateRepo) Create(ctx context.Context, b *model.BlockedDate) error {
	const q = `INSERT INTO blocked_dates (category_id, start_date, end_date, reason)
               VALUES (?, ?, ?, ?)`
	var categoryID any
	if b.CategoryID != nil {
		categoryID = *b.CategoryID
	}
	result, err := r.db.ExecContext(ctx, q, categoryID,
		b.StartDate.Format(dateFmt), b.EndDate.Format(dateFmt), b.Reason)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// Delete removes a block by ID, returning ErrNotFound when no row matched.
func (r *BlockedDateRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blocked_dates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all blocks ordered by start date.
func (r *BlockedDateRepo) List(ctx context.Context) ([]model.BlockedDate, error) {
	const q = `SELECT id, category_id, start_date, end_date, reason, created_at
               FROM blocked_dates
               ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	blocks := make([]model.BlockedDate, 0)
	for rows.Next() {
		var b model.BlockedDate
		var categoryID sql.NullInt64
		if err := rows.Scan(&b.ID, &categoryID, &b.StartDate, &b.EndDate, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		if categoryID.Valid {
			cid := uint64(categoryID.Int64)
			b.CategoryID = &cid
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// GetByID returns a single block, or ErrNotFound.
func (r *BlockedDateRepo) GetByID(ctx context.Context, id uint64) (*model.BlockedDate, error) {
	const q = `SELECT id, category_id, start_date, end_date, reason, created_at
               FROM blocked_dates WHERE id = ?`
	var b model.BlockedDate
	var categoryID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &categoryID, &b.StartDate, &b.EndDate, &b.Reason, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		cid := uint64(categoryID.Int64)
		b.CategoryID = &cid
	}
	return &b, nil
}
