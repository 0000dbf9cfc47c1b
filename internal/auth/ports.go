package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bookly/bookly-api/internal/models"
)

// CredentialStore persists user records. Lookups return (nil, nil) when no
// record matches. Save must fail with an error wrapping ErrUserAlreadyExists
// when the email is taken.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User, fields models.UserUpdate) error
}

// RevocationStore records revoked token ids. Entries expire after ttl.
type RevocationStore interface {
	MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
