package identity

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost the service has always used; raising it
// invalidates no existing hashes but slows sign-up and sign-in.
const bcryptCost = 10

// HashPassword returns a salted bcrypt digest of plain.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", OpError{Op: "identity.HashPassword", Kind: ErrInvalidInput, Msg: "empty password"}
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt digest.
// A mismatch returns (false, nil); only malformed digests return an error.
func VerifyPassword(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
