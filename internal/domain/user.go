package domain

import "time"

// User is the domain model for listing owners.
//
// RefreshToken is the single source of truth for refresh validity: exactly one
// active refresh token exists per user, rotated on every successful refresh
// and cleared at logout.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
