package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:     []byte("test-secret-at-least-32-bytes-long"),
		Issuer:     "authgate",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return m
}

func TestNewManager_Config(t *testing.T) {
	_, err := NewManager(Config{AccessTTL: time.Minute, RefreshTTL: time.Hour})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewManager(Config{Secret: []byte("s"), RefreshTTL: time.Hour})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestIssueAndVerify(t *testing.T) {
	m := newTestManager(t)
	now := time.Now().UTC().Truncate(time.Second)

	tok, exp, err := m.IssueAccess("01HZZZZZZZZZZZZZZZZZZZZZZZ", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), exp)

	claims, err := m.Verify(tok, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "01HZZZZZZZZZZZZZZZZZZZZZZZ", claims.Subject)
	assert.Equal(t, exp, claims.ExpiresAt.UTC())
}

func TestVerify_Expired(t *testing.T) {
	m := newTestManager(t)
	now := time.Now().UTC()

	tok, _, err := m.IssueAccess("u1", now)
	require.NoError(t, err)

	_, err = m.Verify(tok, now.Add(16*time.Minute))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Tampered(t *testing.T) {
	m := newTestManager(t)
	now := time.Now().UTC()

	tok, _, err := m.IssueRefresh("u1", now)
	require.NoError(t, err)

	_, err = m.Verify(tok+"x", now)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify("not-a-jwt", now)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(Config{
		Secret:     []byte("a-completely-different-signing-key"),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	tok, _, err := other.IssueAccess("u1", now)
	require.NoError(t, err)

	_, err = m.Verify(tok, now)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshOutlivesAccess(t *testing.T) {
	m := newTestManager(t)
	now := time.Now().UTC()

	_, accessExp, err := m.IssueAccess("u1", now)
	require.NoError(t, err)
	_, refreshExp, err := m.IssueRefresh("u1", now)
	require.NoError(t, err)

	assert.True(t, refreshExp.After(accessExp))
}
