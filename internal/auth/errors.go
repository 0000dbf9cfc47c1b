package auth

import "errors"

// Errors returned to clients. Each has a fixed status and message, see
// internal/httperr.
var (
	ErrInvalidToken           = errors.New("token is invalid or expired")
	ErrRevokedToken           = errors.New("token is invalid or has been revoked")
	ErrAccessTokenRequired    = errors.New("access token required")
	ErrRefreshTokenRequired   = errors.New("refresh token required")
	ErrUserAlreadyExists      = errors.New("user with email already exists")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInsufficientPermission = errors.New("insufficient permission")
	ErrUserNotFound           = errors.New("user not found")
	ErrAccountNotVerified     = errors.New("account not verified")
	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrPasswordTooLong        = errors.New("password is too long")
)

// Decode failures reported by the token codecs. The verifier folds all of them
// into ErrInvalidToken.
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrSignatureInvalid = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token is expired")
)
