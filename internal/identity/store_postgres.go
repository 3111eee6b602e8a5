package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements identity persistence over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must not close it.
// Unique-violation errors on users.email are mapped to ConflictError so the
// database stays the single source of truth for uniqueness (no check-then-
// insert race).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const userColumns = `id, email, name, password_hash, is_online, refresh_token, created_at, updated_at`

// CreateUser inserts a new user row.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	email := NormalizeEmail(in.Email)
	if email == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "password hash is required"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, is_online, refresh_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, false, NULL, $5, $5)
		RETURNING `+userColumns,
		id, email, in.Name, in.PasswordHash, now,
	)

	u, err := scanUser(row)
	if err != nil {
		if pgIsUniqueViolation(err) {
			return User{}, ConflictError{Op: op, Field: "email", Value: email}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail loads a user by normalized email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		NormalizeEmail(email),
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID loads a user by id.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetSignedIn marks the user online and stores the new refresh token.
func (s *PostgresStore) SetSignedIn(ctx context.Context, id string, refreshToken string, now time.Time) (User, error) {
	return s.updateUser(ctx, "identity.SetSignedIn", `
		UPDATE users SET is_online = true, refresh_token = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+userColumns,
		id, refreshToken, utcOrNow(now))
}

// SetRefreshToken overwrites the stored refresh token slot.
func (s *PostgresStore) SetRefreshToken(ctx context.Context, id string, refreshToken string, now time.Time) (User, error) {
	return s.updateUser(ctx, "identity.SetRefreshToken", `
		UPDATE users SET refresh_token = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+userColumns,
		id, refreshToken, utcOrNow(now))
}

// ClearSession marks the user offline and clears the refresh token slot.
func (s *PostgresStore) ClearSession(ctx context.Context, id string, now time.Time) (User, error) {
	return s.updateUser(ctx, "identity.ClearSession", `
		UPDATE users SET is_online = false, refresh_token = NULL, updated_at = $2
		WHERE id = $1
		RETURNING `+userColumns,
		id, utcOrNow(now))
}

func (s *PostgresStore) updateUser(ctx context.Context, op, query string, args ...any) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.IsOnline,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func utcOrNow(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now().UTC()
	}
	return now.UTC()
}

func pgIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" // unique_violation
}
