// Package authapi wires the HTTP auth endpoints to the identity store and
// token manager: sign-up, sign-in, refresh rotation, logout, current user.
package authapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"authgate/internal/identity"
	"authgate/internal/presence"
	"authgate/internal/token"
)

const msgInvalidCredentials = "The email address or password you entered is incorrect"

// Handler serves the auth API.
type Handler struct {
	log    *slog.Logger
	cfg    Config
	store  identity.Store
	tokens *token.Manager
	hub    *presence.Hub
}

// NewHandler constructs a Handler. The presence hub is optional; when nil,
// online/offline transitions are not broadcast.
func NewHandler(log *slog.Logger, cfg Config, store identity.Store, tokens *token.Manager, hub *presence.Hub) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("authapi: nil store")
	}
	if tokens == nil {
		return nil, errors.New("authapi: nil token manager")
	}
	return &Handler{
		log:    log,
		cfg:    cfg.withDefaults(),
		store:  store,
		tokens: tokens,
		hub:    hub,
	}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	base := h.cfg.BasePath
	mux.HandleFunc(base+"/sign-up", h.handleSignUp)
	mux.HandleFunc(base+"/sign-in", h.handleSignIn)
	mux.HandleFunc(base+"/refresh", h.handleRefresh)
	mux.HandleFunc(base+"/logout", h.WithUser(h.handleLogout))
	mux.HandleFunc(base+"/me", h.WithUser(h.handleMe))
}

// ---- handlers ----

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signUpRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		h.log.Error("auth.signup.hash.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	u, err := h.store.CreateUser(r.Context(), identity.CreateUserInput{
		Email:        email,
		Name:         req.Name,
		PasswordHash: hash,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		var ce identity.ConflictError
		switch {
		case errors.As(err, &ce):
			writeError(w, http.StatusConflict,
				fmt.Sprintf("The email address provided %s already exists", ce.Value))
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "Invalid request body")
		default:
			h.log.Error("auth.signup.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Account created successfully",
		Data:    signUpData{User: toUserPayload(u)},
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signInRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	// The "no such user" and "wrong password" branches answer identically to
	// avoid account enumeration.
	u, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusBadRequest, msgInvalidCredentials)
			return
		}
		h.log.Error("auth.signin.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	ok, err := identity.VerifyPassword(req.Password, u.PasswordHash)
	if err != nil {
		h.log.Error("auth.signin.verify.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	accessToken, refreshToken, ok := h.issueTokenPair(w, u.ID, now)
	if !ok {
		return
	}

	updated, err := h.store.SetSignedIn(ctx, u.ID, refreshToken, now)
	if err != nil {
		h.log.Error("auth.signin.persist.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.setTokenCookie(w, h.cfg.AccessCookieName, accessToken, cookieMaxAge(h.tokens.AccessTTL()))
	h.setTokenCookie(w, h.cfg.RefreshCookieName, refreshToken, cookieMaxAge(h.tokens.RefreshTTL()))

	h.publishPresence(updated.ID, true, now)
	h.log.Info("auth.signin", "user_id", updated.ID)

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Sign-in successfully",
		Data: signInData{
			User:         toUserPayload(updated),
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	raw, ok := cookieValue(r, h.cfg.RefreshCookieName)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Refresh token is missing")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	claims, err := h.tokens.Verify(raw, now)
	if err != nil {
		writeError(w, http.StatusForbidden, "Refresh token is invalid")
		return
	}

	// Any validly signed, unexpired refresh token for an existing user
	// rotates; the presented token is not compared against the stored slot.
	u, err := h.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusForbidden, "Refresh token is invalid")
			return
		}
		h.log.Error("auth.refresh.lookup.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	accessToken, refreshToken, ok := h.issueTokenPair(w, u.ID, now)
	if !ok {
		return
	}

	if _, err := h.store.SetRefreshToken(ctx, u.ID, refreshToken, now); err != nil {
		h.log.Error("auth.refresh.persist.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.setTokenCookie(w, h.cfg.AccessCookieName, accessToken, cookieMaxAge(h.tokens.AccessTTL()))
	h.setTokenCookie(w, h.cfg.RefreshCookieName, refreshToken, cookieMaxAge(h.tokens.RefreshTTL()))

	h.log.Info("auth.refresh", "user_id", u.ID)

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Access token generated successfully",
		Data: refreshData{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusForbidden, "Access token is invalid")
		return
	}

	now := time.Now().UTC()
	if _, err := h.store.ClearSession(r.Context(), u.ID, now); err != nil {
		h.log.Error("auth.logout.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.clearSessionCookies(w)
	h.publishPresence(u.ID, false, now)
	h.log.Info("auth.logout", "user_id", u.ID)

	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successfully"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusForbidden, "Access token is invalid")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Fetch current user",
		Data:    meData{User: toUserPayload(u)},
	})
}

// ---- helpers ----

func (h *Handler) issueTokenPair(w http.ResponseWriter, userID string, now time.Time) (access, refresh string, ok bool) {
	access, _, err := h.tokens.IssueAccess(userID, now)
	if err != nil {
		h.log.Error("auth.token.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return "", "", false
	}
	refresh, _, err = h.tokens.IssueRefresh(userID, now)
	if err != nil {
		h.log.Error("auth.token.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return "", "", false
	}
	return access, refresh, true
}

func (h *Handler) publishPresence(userID string, online bool, at time.Time) {
	if h.hub == nil {
		return
	}
	h.hub.Publish(presence.Event{UserID: userID, Online: online, At: at})
}
