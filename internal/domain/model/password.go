package model

import (
	"errors"
	"unicode"
)

// Password length bounds, inclusive.
const (
	MinPasswordLength = 7
	MaxPasswordLength = 12
)

// ErrWeakPassword is matched by every PasswordPolicyError via errors.Is.
var ErrWeakPassword = errors.New("password does not meet policy")

// PasswordPolicyError describes why a password was rejected.
type PasswordPolicyError struct {
	Reason string
}

func (e *PasswordPolicyError) Error() string { return e.Reason }

// Is reports ErrWeakPassword as a match.
func (e *PasswordPolicyError) Is(target error) bool { return target == ErrWeakPassword }

// ValidatePassword enforces the account password policy: 7-12 characters made
// only of ASCII letters and digits, with at least one lowercase letter, one
// uppercase letter and one digit. It applies to provisioning only, never to
// login checks.
func ValidatePassword(secret string) error {
	n := len([]rune(secret))
	if n < MinPasswordLength || n > MaxPasswordLength {
		return &PasswordPolicyError{Reason: "Password must be 7-12 characters long"}
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range secret {
		switch {
		case r > unicode.MaxASCII:
			return errMixedCharacters
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			return errMixedCharacters
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return errMixedCharacters
	}
	return nil
}

var errMixedCharacters = &PasswordPolicyError{
	Reason: "Password must be a combination of lowercase and uppercase letters and numbers",
}
