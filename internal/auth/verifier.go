package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bookly/bookly-api/internal/metrics"
	"github.com/bookly/bookly-api/internal/models"
)

// Kind is the token kind a caller requires.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	if k == KindRefresh {
		return "refresh"
	}
	return "access"
}

// Credentials is a parsed Authorization header.
type Credentials struct {
	Scheme string
	Token  string
}

// Verify runs a presented credential through scheme, decode, revocation and
// kind checks, in that order, stopping at the first failure.
func (s *Service) Verify(ctx context.Context, creds Credentials, kind Kind) (*SessionClaims, error) {
	claims, err := s.verify(ctx, creds, kind, true)
	metrics.TokenVerifications.WithLabelValues(kind.String(), outcome(err)).Inc()
	return claims, err
}

func (s *Service) verify(ctx context.Context, creds Credentials, kind Kind, checkRevocation bool) (*SessionClaims, error) {
	if !strings.EqualFold(creds.Scheme, "bearer") || creds.Token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.tokens.Decode(creds.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if checkRevocation {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}

	switch {
	case kind == KindAccess && claims.Refresh:
		return nil, ErrAccessTokenRequired
	case kind == KindRefresh && !claims.Refresh:
		return nil, ErrRefreshTokenRequired
	}
	return claims, nil
}

// Authenticate verifies an access token and resolves the identity it was
// issued to. A live token for a missing account yields ErrUserNotFound.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (*models.User, *SessionClaims, error) {
	claims, err := s.Verify(ctx, creds, KindAccess)
	if err != nil {
		return nil, nil, err
	}
	id, err := uuid.Parse(claims.User.UID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad subject: %w", ErrInvalidToken, err)
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve identity: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}
	return user, claims, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRevokedToken):
		return "revoked"
	case errors.Is(err, ErrAccessTokenRequired), errors.Is(err, ErrRefreshTokenRequired):
		return "wrong_kind"
	case errors.Is(err, ErrInvalidToken):
		return "invalid"
	default:
		return "error"
	}
}
