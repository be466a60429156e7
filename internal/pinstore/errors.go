package pinstore

import "errors"

// Domain errors for the credential store.
var (
	// ErrProtectedIdentity is returned when removing the admin identity.
	ErrProtectedIdentity = errors.New("pinstore: admin identity cannot be removed")

	// ErrAdminExists is returned by CreateAdmin when an admin is configured.
	ErrAdminExists = errors.New("pinstore: admin already configured")

	// ErrEmptyIdentity is returned when storing a PIN without an identity.
	ErrEmptyIdentity = errors.New("pinstore: identity is required")
)
