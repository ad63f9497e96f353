package repository

import (
	"context"
	"errors"

	"github.com/YK-03/SharePlate/internal/model"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("repository: not found")

	// ErrAlreadyClaimed is returned by ClaimItem when the item exists but is
	// no longer available.
	ErrAlreadyClaimed = errors.New("repository: item already claimed")

	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("repository: duplicate")
)

// ItemRepository defines item data access methods.
type ItemRepository interface {
	// CreateItem inserts an available item and fills in ID and CreatedAt.
	CreateItem(ctx context.Context, item *model.Item) error

	// GetItem retrieves an item by ID.
	GetItem(ctx context.Context, id int64) (*model.Item, error)

	// ListAvailableItems returns available items, newest first.
	ListAvailableItems(ctx context.Context, filter model.ItemFilter) ([]model.Item, error)

	// UpdateItemLocation sets the address and, when coords is non-nil, the
	// coordinates. Availability is never touched.
	UpdateItemLocation(ctx context.Context, id int64, address string, coords *model.Coordinates) error
}

// RequestRepository defines claim request data access methods.
type RequestRepository interface {
	// ClaimItem atomically flips an available item to claimed and records
	// an Accepted request for requesterID. Returns ErrNotFound or
	// ErrAlreadyClaimed without writing anything when the claim loses.
	ClaimItem(ctx context.Context, itemID, requesterID int64) (*model.Request, error)

	// ListRequestsByRequester returns a user's requests, oldest first.
	ListRequestsByRequester(ctx context.Context, requesterID int64) ([]model.Request, error)

	// CountRequestsForItem counts requests referencing an item.
	CountRequestsForItem(ctx context.Context, itemID int64) (int64, error)
}

// UserRepository defines user account data access methods.
type UserRepository interface {
	// CreateUser inserts a user and fills in ID. Returns ErrDuplicate when
	// the email is taken.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	// GetUserByEmail retrieves a user by normalised email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// ListUsers returns users matching filter ordered by ID.
	ListUsers(ctx context.Context, filter model.UserFilter) ([]model.User, error)

	// ListNotifiableVolunteers returns active volunteers with notifications
	// enabled and a non-empty email.
	ListNotifiableVolunteers(ctx context.Context) ([]model.User, error)
}

// Store is a complete persistence backend.
type Store interface {
	ItemRepository
	RequestRepository
	UserRepository

	// Migrate creates missing tables and indexes.
	Migrate(ctx context.Context) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Tables lists tables (or collections) in the database.
	Tables(ctx context.Context) ([]string, error)

	// Columns lists the column (or field) names of a table.
	Columns(ctx context.Context, table string) ([]string, error)

	// Reset drops all application tables.
	Reset(ctx context.Context) error

	// GetStats returns row counts and backend details.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close releases the connection.
	Close() error
}
