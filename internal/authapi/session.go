package authapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"authgate/internal/identity"
)

// Session check failures. Missing credential material maps to 401; a present
// but unusable credential (bad signature, expired, or unknown subject) maps
// to 403.
var (
	ErrNoAccessToken      = errors.New("access token is missing")
	ErrInvalidAccessToken = errors.New("access token is invalid")
)

type ctxKey struct{}

// ContextWithUser returns a context carrying the resolved session user.
func ContextWithUser(ctx context.Context, u identity.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the session user attached by WithUser.
func UserFromContext(ctx context.Context) (identity.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(identity.User)
	return u, ok
}

// UserFromRequest resolves the authenticated user from the access-token
// cookie: extract, verify, load by subject. It is the single session check
// shared by protected routes and the presence gateway.
func (h *Handler) UserFromRequest(r *http.Request) (identity.User, error) {
	raw, ok := cookieValue(r, h.cfg.AccessCookieName)
	if !ok {
		return identity.User{}, ErrNoAccessToken
	}

	claims, err := h.tokens.Verify(raw, time.Now().UTC())
	if err != nil {
		return identity.User{}, ErrInvalidAccessToken
	}

	u, err := h.store.GetUserByID(r.Context(), claims.Subject)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.User{}, ErrInvalidAccessToken
		}
		return identity.User{}, err
	}
	return u, nil
}

// WithUser guards a protected route: it resolves the session user and passes
// it to next via the request context, or rejects the request.
func (h *Handler) WithUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.UserFromRequest(r)
		if err != nil {
			switch {
			case errors.Is(err, ErrNoAccessToken):
				writeError(w, http.StatusUnauthorized, "Access token is missing")
			case errors.Is(err, ErrInvalidAccessToken):
				writeError(w, http.StatusForbidden, "Access token is invalid")
			default:
				h.log.Error("auth.session.fail", "err", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}
		next(w, r.WithContext(ContextWithUser(r.Context(), u)))
	}
}
