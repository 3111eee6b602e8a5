package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a dev-only fallback when the database is not configured.
// It mirrors the PostgresStore contract, including the ConflictError on
// duplicate email, so handler tests can run against it.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]User
	byEmail map[string]string // normalized email -> id
}

// NewMemoryStore constructs an empty in-memory Store implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

// CreateUser inserts a new user, enforcing email uniqueness.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := NormalizeEmail(in.Email)
	if email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if in.PasswordHash == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return User{}, ConflictError{Op: op, Field: "email", Value: email}
	}

	u := User{
		ID:           id,
		Email:        email,
		Name:         in.Name,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[id] = u
	s.byEmail[email] = id
	return u, nil
}

// GetUserByEmail loads a user by normalized email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetUserByEmail", Resource: "user"}
	}
	return s.byID[id], nil
}

// GetUserByID loads a user by id.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetUserByID", Resource: "user"}
	}
	return u, nil
}

// SetSignedIn marks the user online and stores the new refresh token.
func (s *MemoryStore) SetSignedIn(ctx context.Context, id string, refreshToken string, now time.Time) (User, error) {
	return s.update(ctx, "identity.SetSignedIn", id, now, func(u *User) {
		u.IsOnline = true
		u.RefreshToken = &refreshToken
	})
}

// SetRefreshToken overwrites the stored refresh token slot.
func (s *MemoryStore) SetRefreshToken(ctx context.Context, id string, refreshToken string, now time.Time) (User, error) {
	return s.update(ctx, "identity.SetRefreshToken", id, now, func(u *User) {
		u.RefreshToken = &refreshToken
	})
}

// ClearSession marks the user offline and clears the refresh token slot.
func (s *MemoryStore) ClearSession(ctx context.Context, id string, now time.Time) (User, error) {
	return s.update(ctx, "identity.ClearSession", id, now, func(u *User) {
		u.IsOnline = false
		u.RefreshToken = nil
	})
}

func (s *MemoryStore) update(ctx context.Context, op, id string, now time.Time, fn func(*User)) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}

	fn(&u)
	u.UpdatedAt = utcOrNow(now)
	s.byID[id] = u
	return u, nil
}
