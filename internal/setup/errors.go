package setup

import "errors"

// Domain-specific errors for credential administration.
var (
	// ErrInvalidPIN is returned when a PIN is not exactly six digits.
	ErrInvalidPIN = errors.New("setup: pin must be exactly 6 digits")

	// ErrInvalidUsername is returned for empty, overlong or reserved names.
	ErrInvalidUsername = errors.New("setup: invalid username")

	// ErrAdminExists is returned by SetupAdmin once an admin PIN is configured.
	ErrAdminExists = errors.New("setup: admin pin already configured")

	// ErrAdminNotConfigured is returned when unlocking before first-run setup.
	ErrAdminNotConfigured = errors.New("setup: admin pin not configured")

	// ErrInvalidAdminPIN is returned when the admin PIN does not verify.
	ErrInvalidAdminPIN = errors.New("setup: invalid admin pin")

	// ErrUserNotFound is returned when modifying or removing an unknown user.
	ErrUserNotFound = errors.New("setup: user not found")
)
