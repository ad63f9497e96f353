package model

import (
	"strings"
	"time"
)

// Role is a user's role on the platform.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleVolunteer Role = "volunteer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleRecipient, RoleVolunteer:
		return true
	}
	return false
}

// User is a platform account. Email is stored normalised.
type User struct {
	ID                   int64     `json:"id"`
	Email                string    `json:"email"`
	PasswordHash         string    `json:"-"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	Role                 Role      `json:"role"`
	PhoneNumber          string    `json:"phone_number"`
	IsActive             bool      `json:"is_active"`
	NotificationsEnabled bool      `json:"email_notifications_enabled"`
	DateJoined           time.Time `json:"date_joined"`
}

// DisplayName returns the full name, falling back to the email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// UserFilter narrows a user listing. Empty fields match everything.
type UserFilter struct {
	Role  Role
	Email string
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
