package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/YK-03/SharePlate/internal/model"
)

const itemColumns = `i.id, i.name, i.description, i.address, i.quantity, i.expiry_date,
	i.is_available, i.created_at, i.donor_id, COALESCE(u.email, ''), i.latitude, i.longitude`

const itemFrom = ` FROM items i LEFT JOIN users u ON u.id = i.donor_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var (
		item     model.Item
		lat, lon sql.NullFloat64
	)
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Address,
		&item.Quantity,
		&item.ExpiryDate,
		&item.IsAvailable,
		&item.CreatedAt,
		&item.DonorID,
		&item.DonorEmail,
		&lat,
		&lon,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		item.SetCoordinates(&model.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64})
	}
	return &item, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// CreateItem inserts an available item.
func (s *SQLStore) CreateItem(ctx context.Context, item *model.Item) error {
	item.IsAvailable = true
	item.CreatedAt = s.now()

	id, err := s.insert(ctx, s.db,
		`INSERT INTO items (name, description, address, quantity, expiry_date, is_available, created_at, donor_id, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name,
		item.Description,
		item.Address,
		item.Quantity,
		item.ExpiryDate,
		item.IsAvailable,
		item.CreatedAt,
		item.DonorID,
		nullFloat(item.Latitude),
		nullFloat(item.Longitude),
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	item.ID = id
	return nil
}

// GetItem retrieves an item by ID.
func (s *SQLStore) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, s.q(`SELECT `+itemColumns+itemFrom+` WHERE i.id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListAvailableItems returns available items, newest first.
func (s *SQLStore) ListAvailableItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + itemFrom + ` WHERE i.is_available = ?`
	args := []interface{}{true}

	if b := filter.BBox; b != nil {
		query += ` AND i.latitude IS NOT NULL AND i.longitude IS NOT NULL
			AND i.longitude BETWEEN ? AND ? AND i.latitude BETWEEN ? AND ?`
		args = append(args, b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
	}
	query += ` ORDER BY i.created_at DESC, i.id DESC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItemLocation sets the address and, when coords is non-nil, the coordinates.
func (s *SQLStore) UpdateItemLocation(ctx context.Context, id int64, address string, coords *model.Coordinates) error {
	var (
		res sql.Result
		err error
	)
	if coords == nil {
		res, err = s.db.ExecContext(ctx, s.q(`UPDATE items SET address = ? WHERE id = ?`), address, id)
	} else {
		res, err = s.db.ExecContext(ctx,
			s.q(`UPDATE items SET address = ?, latitude = ?, longitude = ? WHERE id = ?`),
			address, coords.Latitude, coords.Longitude, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update item location: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update item location: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
