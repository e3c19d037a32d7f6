package enums

import "fmt"

// AccountRole maps to the account_role enum in Postgres.
type AccountRole string

const (
	AccountRoleConsumer     AccountRole = "consumer"
	AccountRoleProfessional AccountRole = "professional"
	AccountRoleAdmin        AccountRole = "admin"
)

var validAccountRoles = []AccountRole{
	AccountRoleConsumer,
	AccountRoleProfessional,
	AccountRoleAdmin,
}

// String implements fmt.Stringer.
func (r AccountRole) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r AccountRole) IsValid() bool {
	for _, candidate := range validAccountRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseAccountRole converts raw input into an AccountRole.
func ParseAccountRole(value string) (AccountRole, error) {
	for _, candidate := range validAccountRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account role %q", value)
}
