package enums

import (
	"fmt"
	"strings"
)

// UserRole is the single supply-chain role a user acts under.
type UserRole string

const (
	UserRoleRetailer    UserRole = "RETAILER"
	UserRoleDistributor UserRole = "DISTRIBUTOR"
	UserRoleDelivery    UserRole = "DELIVERY"
)

var validUserRoles = []UserRole{
	UserRoleRetailer,
	UserRoleDistributor,
	UserRoleDelivery,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole, ignoring case.
func ParseUserRole(value string) (UserRole, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validUserRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
