package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_NeverPlaintext(t *testing.T) {
	digest, err := HashPassword("p1")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.NotEqual(t, "p1", digest)
}

func TestVerifyPassword(t *testing.T) {
	digest, err := HashPassword("correct horse")
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	_, err := VerifyPassword("p1", "not-a-bcrypt-hash")
	assert.Error(t, err)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.True(t, IsInvalidInput(err))
}
