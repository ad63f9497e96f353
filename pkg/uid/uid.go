package uid

import "github.com/google/uuid"

// New returns a random UUID string, used for request IDs.
func New() string {
	return uuid.NewString()
}

// IsValid reports whether id parses as a UUID. Incoming X-Request-ID values
// that fail this check are replaced.
func IsValid(id string) bool {
	return uuid.Validate(id) == nil
}
