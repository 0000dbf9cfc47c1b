package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookly/bookly-api/internal/mail"
	"github.com/bookly/bookly-api/internal/metrics"
	"github.com/bookly/bookly-api/internal/models"
)

// Policy holds the verification switches the service enforces.
type Policy struct {
	LoginRequiresVerified    bool
	RoleGateRequiresVerified bool
}

// Options wires a Service to its collaborators.
type Options struct {
	Users         CredentialStore
	Revocations   RevocationStore
	Mailer        mail.Dispatcher
	Tokens        *TokenCodec
	Links         *LinkCodec
	Hasher        *Hasher
	RevocationTTL time.Duration
	PublicBaseURL string
	Policy        Policy
}

// Service is the authentication core: signup, login, token refresh, logout,
// email verification and password reset. It is built once per process and is
// safe for concurrent use.
type Service struct {
	users         CredentialStore
	revocations   RevocationStore
	mailer        mail.Dispatcher
	tokens        *TokenCodec
	links         *LinkCodec
	hasher        *Hasher
	revocationTTL time.Duration
	baseURL       string
	policy        Policy
	now           func() time.Time
}

func NewService(opts Options) *Service {
	return &Service{
		users:         opts.Users,
		revocations:   opts.Revocations,
		mailer:        opts.Mailer,
		tokens:        opts.Tokens,
		links:         opts.Links,
		hasher:        opts.Hasher,
		revocationTTL: opts.RevocationTTL,
		baseURL:       strings.TrimRight(opts.PublicBaseURL, "/"),
		policy:        opts.Policy,
		now:           time.Now,
	}
}

// SignupInput is a validated signup request.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Username  string
}

// LoginResult is the token pair issued on login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// Signup registers an unverified user with the default role and queues a
// verification email.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if err := checkPasswordLength(in.Password); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Verified:     false,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.sendLink(ctx, user.Email, PurposeEmailVerification)
	return user, nil
}

// Login checks credentials and issues an access and a refresh token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		s.hasher.VerifyMissing(password)
		metrics.Logins.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		metrics.Logins.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}
	if s.policy.LoginRequiresVerified && !user.Verified {
		metrics.Logins.WithLabelValues("not_verified").Inc()
		return nil, ErrAccountNotVerified
	}

	claims := UserClaims{Email: user.Email, UID: user.ID.String(), Role: string(user.Role)}
	access, err := s.tokens.Issue(claims, false)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Issue(claims, true)
	if err != nil {
		return nil, err
	}
	metrics.Logins.WithLabelValues("ok").Inc()
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Refresh mints a new access token from a refresh token. The refresh token
// itself stays valid until it expires.
func (s *Service) Refresh(ctx context.Context, creds Credentials) (string, error) {
	claims, err := s.Verify(ctx, creds, KindRefresh)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(claims.User, false)
}

// Logout revokes an access token. Presenting an already revoked token
// succeeds again.
func (s *Service) Logout(ctx context.Context, creds Credentials) error {
	claims, err := s.verify(ctx, creds, KindAccess, false)
	if err != nil {
		return err
	}
	if err := s.revocations.MarkRevoked(ctx, claims.ID, s.revocationTTL); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	metrics.Revocations.Inc()
	return nil
}

// SendVerification queues a new verification link. Unknown and already
// verified addresses are ignored so the endpoint reveals nothing.
func (s *Service) SendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || user.Verified {
		return nil
	}
	s.sendLink(ctx, user.Email, PurposeEmailVerification)
	return nil
}

// VerifyEmail marks the account named by a verification link as verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	email, err := s.links.Decode(token, PurposeEmailVerification)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	verified := true
	if err := s.users.Update(ctx, user, models.UserUpdate{Verified: &verified}); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	return user, nil
}

// RequestPasswordReset queues a reset link for a registered address.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil
	}
	s.sendLink(ctx, user.Email, PurposePasswordReset)
	return nil
}

// ResetPassword replaces the password of the account named by a reset link.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if err := checkPasswordLength(password); err != nil {
		return err
	}
	email, err := s.links.Decode(token, PurposePasswordReset)
	if err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.Update(ctx, user, models.UserUpdate{PasswordHash: &hash}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// sendLink is fire-and-forget: a failure to queue is logged, never returned.
func (s *Service) sendLink(ctx context.Context, email string, purpose LinkPurpose) {
	token, err := s.links.Encode(email, purpose)
	if err != nil {
		log.Printf("ERROR: encode %s link: %v", purpose, err)
		return
	}

	var msg mail.Message
	switch purpose {
	case PurposePasswordReset:
		msg = mail.PasswordResetMessage(email, s.baseURL+"/api/v1/auth/password-reset-confirm/"+token)
	default:
		msg = mail.VerificationMessage(email, s.baseURL+"/api/v1/auth/verify/"+token)
	}
	if err := s.mailer.Dispatch(ctx, msg); err != nil {
		log.Printf("ERROR: dispatch %s mail: %v", purpose, err)
	}
}

func checkPasswordLength(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
