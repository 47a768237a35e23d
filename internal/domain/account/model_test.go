package account

import (
	"errors"
	"testing"
)

func TestRole_CanAccessAdmin(t *testing.T) {
	for _, r := range Roles {
		want := r != RoleCustomer
		if got := r.CanAccessAdmin(); got != want {
			t.Errorf("%s: expected %v, got %v", r, want, got)
		}
	}
	if Role("GUEST").CanAccessAdmin() {
		t.Error("expected unknown role to be denied")
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" inventory_manager ")
	if err != nil || r != RoleInventoryManager {
		t.Errorf("expected INVENTORY_MANAGER, got %q (%v)", r, err)
	}
	if _, err := ParseRole("root"); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("expected ErrUnknownRole, got %v", err)
	}
}

func TestCredentials_Validate(t *testing.T) {
	if err := (Credentials{Password: "x"}).Validate(); !errors.Is(err, ErrEmailRequired) {
		t.Errorf("expected ErrEmailRequired, got %v", err)
	}
	if err := (Credentials{Email: "a@b.co"}).Validate(); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}
}
