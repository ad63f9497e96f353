package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/YK-03/SharePlate/internal/model"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, phone_number,
	is_active, email_notifications_enabled, date_joined`

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&role,
		&u.PhoneNumber,
		&u.IsActive,
		&u.NotificationsEnabled,
		&u.DateJoined,
	)
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// CreateUser inserts a user.
func (s *SQLStore) CreateUser(ctx context.Context, user *model.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = s.now()
	}

	id, err := s.insert(ctx, s.db,
		`INSERT INTO users (email, password_hash, first_name, last_name, role, phone_number, is_active, email_notifications_enabled, date_joined)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		string(user.Role),
		user.PhoneNumber,
		user.IsActive,
		user.NotificationsEnabled,
		user.DateJoined,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by normalised email.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, model.NormalizeEmail(email))
}

func (s *SQLStore) getUser(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.q(query), arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers returns users matching filter ordered by ID.
func (s *SQLStore) ListUsers(ctx context.Context, filter model.UserFilter) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1 = 1`
	var args []interface{}
	if filter.Role != "" {
		query += ` AND role = ?`
		args = append(args, string(filter.Role))
	}
	if filter.Email != "" {
		query += ` AND email = ?`
		args = append(args, model.NormalizeEmail(filter.Email))
	}
	return s.listUsers(ctx, query+` ORDER BY id`, args...)
}

// ListNotifiableVolunteers returns active volunteers with notifications enabled.
func (s *SQLStore) ListNotifiableVolunteers(ctx context.Context) ([]model.User, error) {
	return s.listUsers(ctx,
		`SELECT `+userColumns+` FROM users
		WHERE role = ? AND email_notifications_enabled = ? AND is_active = ? AND email <> ''
		ORDER BY id`,
		string(model.RoleVolunteer), true, true)
}

func (s *SQLStore) listUsers(ctx context.Context, query string, args ...interface{}) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
