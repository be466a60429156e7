package alarm

import "errors"

// Domain errors for alarm control.
var (
	// ErrInvalidCode is returned when the code is missing or matches no credential.
	ErrInvalidCode = errors.New("alarm: invalid code")

	// ErrAreaNotFound is returned for an area the gateway has not reported.
	ErrAreaNotFound = errors.New("alarm: area not found")

	// ErrUnknownAction is returned for an action outside disarm/arm_*.
	ErrUnknownAction = errors.New("alarm: unknown action")

	// ErrGateway wraps a failed mode change.
	ErrGateway = errors.New("alarm: gateway command failed")
)
