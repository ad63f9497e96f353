package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/YK-03/SharePlate/internal/model"
)

// ClaimItem flips an available item to claimed and records the winning
// request in one transaction.
//
// The conditional UPDATE is the only source of truth: whichever transaction
// changes the row wins, every other one sees zero affected rows (Postgres and
// MySQL re-check the WHERE clause after the winner commits, SQLite serialises
// writers). The preceding availability is never read separately.
func (s *SQLStore) ClaimItem(ctx context.Context, itemID, requesterID int64) (*model.Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		s.q(`UPDATE items SET is_available = ? WHERE id = ? AND is_available = ?`),
		false, itemID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to claim item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to claim item: %w", err)
	}

	if n == 0 {
		var one int
		err := tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM items WHERE id = ?`), itemID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check item: %w", err)
		}
		return nil, ErrAlreadyClaimed
	}

	req := &model.Request{
		ItemID:      itemID,
		RequesterID: requesterID,
		Status:      model.RequestAccepted,
		CreatedAt:   s.now(),
	}
	req.ID, err = s.insert(ctx, tx,
		`INSERT INTO requests (item_id, requester_id, status, created_at) VALUES (?, ?, ?, ?)`,
		req.ItemID, req.RequesterID, string(req.Status), req.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	s.log.Debugf("[SQLStore] Item %d claimed by user %d (request %d)", itemID, requesterID, req.ID)
	return req, nil
}

// ListRequestsByRequester returns a user's requests, oldest first.
func (s *SQLStore) ListRequestsByRequester(ctx context.Context, requesterID int64) ([]model.Request, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT r.id, r.item_id, r.requester_id, r.status, r.created_at, `+itemColumns+`
		FROM requests r
		JOIN items i ON i.id = r.item_id
		LEFT JOIN users u ON u.id = i.donor_id
		WHERE r.requester_id = ?
		ORDER BY r.created_at, r.id`), requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := []model.Request{}
	for rows.Next() {
		var (
			req      model.Request
			status   string
			item     model.Item
			lat, lon sql.NullFloat64
		)
		err := rows.Scan(
			&req.ID, &req.ItemID, &req.RequesterID, &status, &req.CreatedAt,
			&item.ID, &item.Name, &item.Description, &item.Address, &item.Quantity, &item.ExpiryDate,
			&item.IsAvailable, &item.CreatedAt, &item.DonorID, &item.DonorEmail, &lat, &lon,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		if lat.Valid && lon.Valid {
			item.SetCoordinates(&model.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64})
		}
		req.Status = model.RequestStatus(status)
		req.Item = &item
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// CountRequestsForItem counts requests referencing an item.
func (s *SQLStore) CountRequestsForItem(ctx context.Context, itemID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM requests WHERE item_id = ?`), itemID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return n, nil
}
