package domain

import (
	"errors"
	"time"
)

// User represents a bank customer or administrator
type User struct {
	ID             string
	Email          string
	Name           string
	HashedPassword string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Active         bool
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin may perform manual ledger adjustments
	RoleAdmin Role = "admin"

	// RoleCustomer owns accounts and moves their own money
	RoleCustomer Role = "customer"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Identity is the authenticated caller of a ledger operation.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// Validate rejects anonymous identities.
func (i Identity) Validate() error {
	if i.UserID == "" {
		return ErrUnauthorized
	}
	return nil
}

// IdentityOf returns the identity carried by a stored user.
func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// Authentication errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)
