package gateway

import "errors"

var (
	// ErrInvalidPayload is returned for state messages that are not valid JSON
	// or carry an unknown mode.
	ErrInvalidPayload = errors.New("gateway: invalid state payload")

	// ErrPublish is returned when a mode request cannot be delivered.
	ErrPublish = errors.New("gateway: publish failed")
)
