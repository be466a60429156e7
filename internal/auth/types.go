package auth

import "errors"

// Role represents an authorisation tier.
type Role string

// RoleInstaller is granted to whoever presented the admin PIN. It is the
// only role: alarm users authenticate per command with their own PIN and
// never hold a session.
const RoleInstaller Role = "installer"

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleInstaller
}

// Domain errors.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrForbidden    = errors.New("insufficient permissions")
)
