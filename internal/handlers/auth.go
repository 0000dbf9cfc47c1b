package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/bookly/bookly-api/internal/auth"
	"github.com/bookly/bookly-api/internal/httperr"
	"github.com/bookly/bookly-api/internal/middleware"
	"github.com/bookly/bookly-api/internal/models"
	"github.com/bookly/bookly-api/internal/repository"
)

// AuthHandler holds dependencies for authentication endpoints.
type AuthHandler struct {
	svc   *auth.Service
	books repository.BookRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *auth.Service, books repository.BookRepository) *AuthHandler {
	return &AuthHandler{svc: svc, books: books}
}

func validateSignup(req *models.SignupRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.FirstName, validation.Required, validation.Length(2, 20)),
		validation.Field(&req.LastName, validation.Required, validation.Length(2, 20)),
		validation.Field(&req.Username, validation.Required, validation.Length(1, 8)),
		validation.Field(&req.Email, validation.Required, validation.Length(1, 40), is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(auth.MinPasswordLength, auth.MaxPasswordLength)),
	)
}

// Signup creates an account and queues a verification email.
// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		httperr.Write(w, err)
		return
	}
	if err := validateSignup(&req); err != nil {
		httperr.Write(w, err)
		return
	}

	user, err := h.svc.Signup(r.Context(), auth.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusCreated, models.SignupResponse{
		Message: "Account Created! Check email to verify your account",
		User:    user,
	})
}

// Login validates credentials and issues a token pair.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		httperr.Write(w, err)
		return
	}
	err := validation.ValidateStruct(&creds,
		validation.Field(&creds.Email, validation.Required),
		validation.Field(&creds.Password, validation.Required),
	)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	res, err := h.svc.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, models.LoginResponse{
		Message:      "Login successful",
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         models.UserSummary{ID: res.User.ID, Email: res.User.Email},
	})
}

// RefreshToken issues a new access token for the refresh token in the
// Authorization header.
// GET /api/v1/auth/refresh-token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	creds, err := middleware.Credentials(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	access, err := h.svc.Refresh(r.Context(), creds)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, models.RefreshResponse{AccessToken: access})
}

// Logout revokes the access token in the Authorization header. It does not
// go through RequireAccess so that repeating it succeeds.
// GET /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	creds, err := middleware.Credentials(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	if err := h.svc.Logout(r.Context(), creds); err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged Out Successfully"})
}

// Me returns the authenticated user with the books they submitted.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		httperr.Write(w, httperr.ErrNotAuthenticated)
		return
	}
	books, err := h.books.List(r.Context(), models.BookFilter{UserID: user.ID})
	if err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, models.UserWithBooks{User: *user, Books: books})
}

// VerifyEmail consumes a verification link.
// GET /api/v1/auth/verify/{token}
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Account verified successfully"})
}

func decodeEmail(r *http.Request) (string, error) {
	var req models.EmailRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
	return req.Email, err
}

// SendVerificationMail re-sends the verification link. The response is the
// same whether or not the address is registered.
// POST /api/v1/auth/send_mail
func (h *AuthHandler) SendVerificationMail(w http.ResponseWriter, r *http.Request) {
	email, err := decodeEmail(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	if err := h.svc.SendVerification(r.Context(), email); err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, models.MessageResponse{
		Message: "Please check your email for instructions to verify your account",
	})
}

// PasswordResetRequest mails a reset link if the address is registered.
// POST /api/v1/auth/password-reset-request
func (h *AuthHandler) PasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	email, err := decodeEmail(r)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), email); err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, models.MessageResponse{
		Message: "Please check your email for instructions to reset your password",
	})
}

// PasswordResetConfirm sets a new password from a reset link.
// POST /api/v1/auth/password-reset-confirm/{token}
func (h *AuthHandler) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		httperr.Write(w, err)
		return
	}
	err := validation.ValidateStruct(&req,
		validation.Field(&req.NewPassword, validation.Required, validation.Length(auth.MinPasswordLength, auth.MaxPasswordLength)),
		validation.Field(&req.ConfirmNewPassword, validation.Required),
	)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	err = h.svc.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.NewPassword, req.ConfirmNewPassword)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	httperr.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Password reset Successfully"})
}
