package utils

import "errors"

var ErrNotOwner = errors.New("user does not own this resource")

// AuthorizeOwner allows only the user that owns the resource.
func AuthorizeOwner(ownerID, userID string) error {
	if userID == "" || ownerID != userID {
		return ErrNotOwner
	}
	return nil
}
