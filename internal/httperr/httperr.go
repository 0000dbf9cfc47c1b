// Package httperr renders errors as the JSON error envelope. It is the only
// place that knows which status and message each error maps to.
package httperr

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/bookly/bookly-api/internal/auth"
	"github.com/bookly/bookly-api/internal/models"
	"github.com/bookly/bookly-api/internal/repository"
)

// Transport-level failures raised before a request reaches a handler.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrBadRequest       = errors.New("invalid request body")
	ErrRateLimited      = errors.New("too many requests")
)

type mapping struct {
	err     error
	status  int
	code    string
	message string
}

// Checked in order, so wrapped errors resolve to the first match.
var mappings = []mapping{
	{auth.ErrRevokedToken, http.StatusUnauthorized, "token_revoked", "Token is invalid or has been revoked"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "invalid_token", "Token is invalid Or expired"},
	{auth.ErrAccessTokenRequired, http.StatusUnauthorized, "access_token_required", "Please provide a valid access token"},
	{auth.ErrRefreshTokenRequired, http.StatusForbidden, "refresh_token_required", "Please provide a valid refresh token"},
	{auth.ErrUserAlreadyExists, http.StatusForbidden, "user_exists", "User with email already exists"},
	{auth.ErrInvalidCredentials, http.StatusBadRequest, "invalid_email_or_password", "Invalid Email Or Password"},
	{auth.ErrInsufficientPermission, http.StatusUnauthorized, "insufficient_permissions", "You do not have enough permissions to perform this action"},
	{auth.ErrUserNotFound, http.StatusNotFound, "user_not_found", "User not found"},
	{auth.ErrAccountNotVerified, http.StatusForbidden, "account_not_verified", "Account Not verified"},
	{auth.ErrPasswordMismatch, http.StatusBadRequest, "password_mismatch", "Passwords do not match"},
	{auth.ErrPasswordTooShort, http.StatusUnprocessableEntity, "validation_error", "Password must be at least 6 characters"},
	{auth.ErrPasswordTooLong, http.StatusUnprocessableEntity, "validation_error", "Password must be at most 72 bytes"},
	{repository.ErrBookNotFound, http.StatusNotFound, "book_not_found", "Book not found"},
	{repository.ErrReviewNotFound, http.StatusNotFound, "review_not_found", "Review not found"},
	{ErrNotAuthenticated, http.StatusForbidden, "not_authenticated", "Not authenticated"},
	{ErrBadRequest, http.StatusBadRequest, "bad_request", "Invalid request body"},
	{ErrRateLimited, http.StatusTooManyRequests, "rate_limited", "Too many requests, try again later"},
}

// WriteJSON writes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WARN: encode response: %v", err)
	}
}

// Write renders err. Errors it does not know are logged and reported as a
// generic 500 so internals never reach the client.
func Write(w http.ResponseWriter, err error) {
	resp := Response(err)
	WriteJSON(w, resp.Code, resp)
}

// Response builds the envelope for err.
func Response(err error) models.ErrorResponse {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
		return models.ErrorResponse{
			Code:      http.StatusUnprocessableEntity,
			ErrorCode: "validation_error",
			Message:   "Invalid request data",
			Fields:    fields,
		}
	}
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return models.ErrorResponse{Code: m.status, ErrorCode: m.code, Message: m.message}
		}
	}
	log.Printf("ERROR: unhandled: %v", err)
	return models.ErrorResponse{
		Code:      http.StatusInternalServerError,
		ErrorCode: "server_error",
		Message:   "Oops! Something went wrong",
	}
}
