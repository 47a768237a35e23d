// Package auth issues and checks the sandbox's cookie sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/bakery/storefront/internal/platform/tenant"
)

// CookieName is the session cookie set by login and register.
const CookieName = "session"

// DefaultTTL is how long a session cookie is valid.
const DefaultTTL = 24 * time.Hour

type contextKey string

const claimsKey contextKey = "session_claims"

var ErrInvalidSession = errors.New("invalid session")

type Claims struct {
	jwt.RegisteredClaims
	Tenant string `json:"tenant"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Signer mints and verifies HS256 session tokens.
type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSigner(key []byte, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{key: key, ttl: ttl, now: time.Now}
}

// Sign returns a token for userID in tenant.
func (s *Signer) Sign(tenantSlug, userID, email, role string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Tenant: tenantSlug,
		Email:  email,
		Role:   role,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return tok, nil
}

func (s *Signer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Cookie builds the session cookie for token.
func (s *Signer) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(s.ttl),
	}
}

// ExpiredCookie clears the session cookie.
func ExpiredCookie() *http.Cookie {
	return &http.Cookie{Name: CookieName, Value: "", Path: "/", HttpOnly: true, MaxAge: -1}
}

// Session reads the session cookie when present. A missing, invalid or
// foreign-tenant cookie leaves the request anonymous; routes that need a user
// add RequireUser.
func Session(signer *Signer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			claims, err := signer.Parse(cookie.Value)
			if err != nil {
				return next(c)
			}
			ctx := c.Request().Context()
			if claims.Tenant != tenant.FromContext(ctx) {
				return next(c)
			}
			c.SetRequest(c.Request().WithContext(context.WithValue(ctx, claimsKey, claims)))
			return next(c)
		}
	}
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

func UserIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Role
	}
	return ""
}
