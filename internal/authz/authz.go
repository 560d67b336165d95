// Package authz holds the read-open / write-restricted-to-owner rule
// applied to every catalog and review mutation.
package authz

import (
	"fmt"

	"github.com/Skotchmaster/storefront/internal/apperr"
)

// Ownable is implemented by every entity whose mutations are restricted
// to a single owning identity.
type Ownable interface {
	OwnerID() uint
}

// RequireOwner rejects the mutation before anything is applied.
func RequireOwner(userID uint, obj Ownable) error {
	if obj.OwnerID() != userID {
		return apperr.ErrForbidden
	}
	return nil
}

// RequireRole gates role-restricted actions such as store creation.
func RequireRole(role, want string) error {
	if role != want {
		return fmt.Errorf("%w: requires %s role", apperr.ErrForbidden, want)
	}
	return nil
}
