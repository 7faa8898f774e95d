package domain

import (
	"errors"
	"strings"
	"time"
)

// AccountStatus is the approval state of an account.
type AccountStatus string

const (
	StatusPending  AccountStatus = "Pending"
	StatusApproved AccountStatus = "Approved"
	StatusRejected AccountStatus = "Rejected"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleRead  Role = "Read"
	RoleWrite Role = "Write"
	RoleAdmin Role = "Admin"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account with that email already exists")
	ErrInvalidResetToken  = errors.New("reset token does not match or has expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotApproved = errors.New("account is not approved")
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleRead, RoleWrite, RoleAdmin:
		return true
	}
	return false
}

// Account is a registered portal user.
type Account struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	FirstName    string        `json:"first_name,omitempty"`
	LastName     string        `json:"last_name,omitempty"`
	Organisation string        `json:"organisation,omitempty"`
	Status       AccountStatus `json:"status"`
	Role         Role          `json:"role"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
