package model

import (
	"fmt"
	"time"
)

// User represents an account that can post or respond to demands.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	PushToken    string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// UserSummary is the public view of a user attached to a demand.
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Roles.
const (
	RoleAdmin  = "admin"
	RoleBuyer  = "buyer"
	RoleFarmer = "farmer"

	// RoleAnonymous is the role of an unauthenticated caller. It is never stored.
	RoleAnonymous = "anonymous"
)

// ValidRole reports whether role can be assigned to an account.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleBuyer, RoleFarmer:
		return true
	}
	return false
}

// RoleIn reports whether role is one of allowed. Unknown roles fail closed.
func RoleIn(role string, allowed ...string) bool {
	if !ValidRole(role) {
		return false
	}
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
