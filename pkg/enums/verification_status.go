package enums

import "fmt"

// VerificationStatus maps to the verification_status enum in Postgres.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

var validVerificationStatuses = []VerificationStatus{
	VerificationStatusPending,
	VerificationStatusApproved,
	VerificationStatusRejected,
}

// String implements fmt.Stringer.
func (s VerificationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s VerificationStatus) IsValid() bool {
	for _, candidate := range validVerificationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseVerificationStatus converts raw input into a VerificationStatus.
func ParseVerificationStatus(value string) (VerificationStatus, error) {
	for _, candidate := range validVerificationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid verification status %q", value)
}
