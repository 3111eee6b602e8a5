package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateAndLookup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, CreateUserInput{Email: "A@X.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.False(t, u.IsOnline)
	assert.Nil(t, u.RefreshToken)

	byEmail, err := s.GetUserByEmail(ctx, " a@x.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, CreateUserInput{Email: "a@x.com", PasswordHash: "h1"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, CreateUserInput{Email: "A@X.COM", PasswordHash: "h2"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var ce ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "email", ce.Field)
	assert.Equal(t, "a@x.com", ce.Value)
}

func TestMemoryStore_SessionTransitions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	u, err := s.CreateUser(ctx, CreateUserInput{Email: "a@x.com", PasswordHash: "h", Now: now})
	require.NoError(t, err)

	signedIn, err := s.SetSignedIn(ctx, u.ID, "refresh-1", now)
	require.NoError(t, err)
	assert.True(t, signedIn.IsOnline)
	require.NotNil(t, signedIn.RefreshToken)
	assert.Equal(t, "refresh-1", *signedIn.RefreshToken)

	rotated, err := s.SetRefreshToken(ctx, u.ID, "refresh-2", now)
	require.NoError(t, err)
	assert.True(t, rotated.IsOnline)
	require.NotNil(t, rotated.RefreshToken)
	assert.Equal(t, "refresh-2", *rotated.RefreshToken)

	cleared, err := s.ClearSession(ctx, u.ID, now)
	require.NoError(t, err)
	assert.False(t, cleared.IsOnline)
	assert.Nil(t, cleared.RefreshToken)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetUserByID(ctx, "01K00000000000000000000000")
	assert.True(t, IsNotFound(err))

	_, err = s.GetUserByEmail(ctx, "nobody@x.com")
	assert.True(t, IsNotFound(err))

	_, err = s.SetSignedIn(ctx, "missing", "tok", time.Time{})
	assert.True(t, IsNotFound(err))
}
