package auth

import (
	"slices"

	"github.com/google/uuid"

	"github.com/bookly/bookly-api/internal/models"
)

// Authorize passes when user holds one of roles. It expects an identity that
// Authenticate already resolved. With RoleGateRequiresVerified set,
// unverified accounts are turned away before the role is looked at.
func (s *Service) Authorize(user *models.User, roles ...models.Role) error {
	if user == nil {
		return ErrInsufficientPermission
	}
	if s.policy.RoleGateRequiresVerified && !user.Verified {
		return ErrAccountNotVerified
	}
	if !slices.Contains(roles, user.Role) {
		return ErrInsufficientPermission
	}
	return nil
}

// CanModify reports whether user may change a resource owned by ownerID:
// admins may change anything, everyone else only what they own.
func CanModify(user *models.User, ownerID *uuid.UUID) bool {
	if user == nil {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	return ownerID != nil && *ownerID == user.ID
}
