// Package identity owns the credential store: user records, password
// hashing, and the persistence boundary used by the auth API.
package identity

import (
	"context"
	"strings"
	"time"
)

// User is the canonical security principal.
//
// RefreshToken holds the most recently issued refresh token for the user.
// It is a single slot: issuing a new refresh token overwrites the previous
// value, and logout clears it.
type User struct {
	ID           string
	Email        string
	Name         *string
	PasswordHash string
	IsOnline     bool
	RefreshToken *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateUserInput describes a sign-up request after validation.
// Password must already be hashed by the caller.
type CreateUserInput struct {
	Email        string
	Name         *string
	PasswordHash string
	Now          time.Time
}

// Store is the identity persistence boundary.
//
// Uniqueness of email is enforced by the store itself, not by a pre-check
// query; CreateUser returns a ConflictError when the email is taken.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)

	// SetSignedIn marks the user online and stores the new refresh token.
	SetSignedIn(ctx context.Context, id string, refreshToken string, now time.Time) (User, error)

	// SetRefreshToken overwrites the stored refresh token slot (rotation).
	SetRefreshToken(ctx context.Context, id string, refreshToken string, now time.Time) (User, error)

	// ClearSession marks the user offline and clears the refresh token slot.
	ClearSession(ctx context.Context, id string, now time.Time) (User, error)
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
