package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// LinkPurpose scopes a link token to the flow that issued it.
type LinkPurpose string

const (
	PurposeEmailVerification LinkPurpose = "email_verification"
	PurposePasswordReset     LinkPurpose = "password_reset"
)

type linkClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LinkCodec encodes the short-lived, URL-safe tokens embedded in verification
// and password reset emails. They carry only an email address and are checked
// by signature and expiry alone: a token stays usable until it expires.
type LinkCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewLinkCodec derives its signing key from secret so that link tokens and
// session tokens never verify as each other.
func NewLinkCodec(secret string, ttl time.Duration) (*LinkCodec, error) {
	if secret == "" {
		return nil, errors.New("link codec: empty secret")
	}
	if ttl <= 0 {
		return nil, errors.New("link codec: ttl must be positive")
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("bookly/link-token")), key); err != nil {
		return nil, fmt.Errorf("link codec: derive key: %w", err)
	}
	return &LinkCodec{key: key, ttl: ttl, now: time.Now}, nil
}

// Encode returns a token binding email to purpose.
func (c *LinkCodec) Encode(email string, purpose LinkPurpose) (string, error) {
	now := c.now().UTC()
	claims := linkClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{string(purpose)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign link token: %w", err)
	}
	return signed, nil
}

// Decode returns the email bound to token. Any failure, including a purpose
// mismatch, is reported as ErrInvalidToken.
func (c *LinkCodec) Decode(token string, purpose LinkPurpose) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &linkClaims{}, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(purpose)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*linkClaims)
	if !ok || !parsed.Valid || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}
