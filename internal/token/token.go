// Package token issues and verifies the signed credentials used by the auth
// API: short-lived access tokens and longer-lived refresh tokens, both JWTs
// carrying the user id as subject.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token fails verification: bad
	// signature, malformed payload, or expired.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig is returned for invalid manager configuration.
	ErrConfig = errors.New("invalid token config")
)

// Config defines the signing secret and per-token-type lifetimes.
//
// The secret is process-wide deployment configuration; both token types are
// signed with it. Lifetimes are explicit so nothing reads the environment at
// issue time.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims is the verified payload of an access or refresh token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Manager signs and verifies HS256 JWTs.
type Manager struct {
	cfg Config
}

// NewManager validates cfg and constructs a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrConfig
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, ErrConfig
	}
	return &Manager{cfg: cfg}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

// IssueAccess mints an access token for subject expiring at now+AccessTTL.
func (m *Manager) IssueAccess(subject string, now time.Time) (string, time.Time, error) {
	return m.issue(subject, now, m.cfg.AccessTTL)
}

// IssueRefresh mints a refresh token for subject expiring at now+RefreshTTL.
func (m *Manager) IssueRefresh(subject string, now time.Time) (string, time.Time, error) {
	return m.issue(subject, now, m.cfg.RefreshTTL)
}

func (m *Manager) issue(subject string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	exp := now.Add(ttl)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	signed, err := tok.SignedString(m.cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates a token, evaluating expiry against now.
// Any failure is collapsed into ErrInvalidToken; callers only branch on
// valid vs invalid.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return m.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
