package models

import "github.com/google/uuid"

// Credentials represents a login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserSummary is the minimal public identity returned on login.
type UserSummary struct {
	ID    uuid.UUID `json:"uid"`
	Email string    `json:"email"`
}

// LoginResponse holds the token pair returned after authentication.
type LoginResponse struct {
	Message      string      `json:"message"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserSummary `json:"user"`
}

// SignupResponse is returned when an account is created.
type SignupResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// RefreshResponse carries a newly minted access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// MessageResponse is the envelope for endpoints that only report an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Status    bool              `json:"status"`
	Code      int               `json:"code"`
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}
