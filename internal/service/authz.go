package service

import "bakery-shop-backend/internal/model"

// Identity is the authenticated caller resolved by a TokenVerifier.
type Identity struct {
	UserID string
	Role   model.Role
}

func (i Identity) IsAdmin() bool { return i.Role == model.RoleAdmin }

// Authorize is the ownership predicate applied to every owned resource:
// addresses, payment methods, orders. Only the owner passes.
func Authorize(id Identity, ownerID string) error {
	if id.UserID == "" || id.UserID != ownerID {
		return forbidden("Not authorized to access this resource")
	}
	return nil
}

// AuthorizeView is Authorize relaxed for read access by administrators.
func AuthorizeView(id Identity, ownerID string) error {
	if id.IsAdmin() {
		return nil
	}
	return Authorize(id, ownerID)
}
