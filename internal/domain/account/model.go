package account

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrUnknownRole      = errors.New("unknown role")
)

// Role is a user's position in the tenant.
type Role string

const (
	RoleOwner            Role = "OWNER"
	RoleAdmin            Role = "ADMIN"
	RoleManager          Role = "MANAGER"
	RoleProductManager   Role = "PRODUCT_MANAGER"
	RoleInventoryManager Role = "INVENTORY_MANAGER"
	RoleSales            Role = "SALES"
	RoleCustomer         Role = "CUSTOMER"
)

// Roles lists every role, most privileged first.
var Roles = []Role{
	RoleOwner,
	RoleAdmin,
	RoleManager,
	RoleProductManager,
	RoleInventoryManager,
	RoleSales,
	RoleCustomer,
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// CanAccessAdmin reports whether the admin panel is visible to r.
func (r Role) CanAccessAdmin() bool {
	return r.Valid() && r != RoleCustomer
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return ErrEmailRequired
	}
	if c.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// Registration is the sign-up form.
type Registration struct {
	Credentials
	Name string `json:"name"`
}
