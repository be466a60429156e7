package setup

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kimballen/acre-Intrusion/internal/pinstore"
)

// PINLength is the only accepted PIN length.
const PINLength = 6

// MaxUsernameLength bounds user names in runes.
const MaxUsernameLength = 64

// ValidatePIN accepts exactly six ASCII digits.
func ValidatePIN(pin string) error {
	if len(pin) != PINLength {
		return ErrInvalidPIN
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrInvalidPIN
		}
	}
	return nil
}

// ValidateUsername rejects empty names, names longer than
// MaxUsernameLength, names with surrounding or control whitespace, and the
// reserved admin identity.
func ValidateUsername(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidUsername)
	case utf8.RuneCountInString(name) > MaxUsernameLength:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidUsername, MaxUsernameLength)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: name has leading or trailing whitespace", ErrInvalidUsername)
	case strings.ContainsFunc(name, isControl):
		return fmt.Errorf("%w: name contains control characters", ErrInvalidUsername)
	case strings.EqualFold(name, pinstore.AdminIdentity):
		return fmt.Errorf("%w: %q is reserved", ErrInvalidUsername, name)
	}
	return nil
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
