package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRole(role string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	if role != "" {
		claims := &Claims{Role: role}
		claims.Subject = "u1"
		req = req.WithContext(context.WithValue(req.Context(), claimsKey, claims))
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		wantCode int
	}{
		{"allowed", "ADMIN", 0},
		{"denied", "CUSTOMER", http.StatusForbidden},
		{"anonymous", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := func(c echo.Context) error {
				called = true
				return nil
			}

			err := RequireRole("OWNER", "ADMIN")(handler)(contextWithRole(tt.role))

			if tt.wantCode == 0 {
				if err != nil || !called {
					t.Fatalf("expected handler to run, got %v", err)
				}
				return
			}
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T", err)
			}
			if httpErr.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, httpErr.Code)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	handler := func(c echo.Context) error { return nil }

	if err := RequireUser()(handler)(contextWithRole("CUSTOMER")); err != nil {
		t.Errorf("expected signed-in customer to pass, got %v", err)
	}
	err := RequireUser()(handler)(contextWithRole(""))
	if httpErr, ok := err.(*echo.HTTPError); !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}
