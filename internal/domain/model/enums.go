package model

import "fmt"

// AccountStatus represents the lifecycle state of a provisioned account.
type AccountStatus string

const (
	AccountStatusInactive AccountStatus = "inactive" // Created, never logged in.
	AccountStatusActive   AccountStatus = "active"   // Logged in at least once.
	AccountStatusDisabled AccountStatus = "disabled" // Excluded from login.
)

// ParseAccountStatus converts a stored or user-supplied value to an AccountStatus.
// An empty string maps to AccountStatusInactive.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch AccountStatus(s) {
	case "", AccountStatusInactive:
		return AccountStatusInactive, nil
	case AccountStatusActive:
		return AccountStatusActive, nil
	case AccountStatusDisabled:
		return AccountStatusDisabled, nil
	default:
		return "", fmt.Errorf("unknown account status %q", s)
	}
}
