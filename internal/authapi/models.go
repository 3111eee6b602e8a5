package authapi

import (
	"time"

	"authgate/internal/identity"
)

type signUpRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userPayload is the wire form of a user record. The password hash is never
// serialized.
type userPayload struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         *string   `json:"name"`
	IsOnline     bool      `json:"isOnline"`
	RefreshToken *string   `json:"refreshToken"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toUserPayload(u identity.User) userPayload {
	return userPayload{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		IsOnline:     u.IsOnline,
		RefreshToken: u.RefreshToken,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type signUpData struct {
	User userPayload `json:"user"`
}

type signInData struct {
	User         userPayload `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type refreshData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type meData struct {
	User userPayload `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}
