package sandbox

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/bakery/storefront/internal/domain/account"
	"github.com/bakery/storefront/internal/platform/auth"
	"github.com/bakery/storefront/internal/platform/tenant"
)

var errBadLogin = echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")

// handleRegister creates an account and signs it in. The first account of a
// tenant owns it; later ones are customers until promoted.
func (s *Server) handleRegister(c echo.Context) error {
	var in account.Registration
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return err
	}

	t, unlock := s.data(c)
	defer unlock()

	if t.userByEmail(in.Email) >= 0 {
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	}
	role := account.RoleCustomer
	if len(t.users) == 0 {
		role = account.RoleOwner
	}
	u := account.User{ID: uuid.NewString(), Email: in.Email, Name: strings.TrimSpace(in.Name), Role: role}
	t.users = append(t.users, userRecord{User: u, passwordHash: hash})

	if err := s.signIn(c, u); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (s *Server) handleLogin(c echo.Context) error {
	var in account.Credentials
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	i := t.userByEmail(strings.TrimSpace(in.Email))
	var rec userRecord
	if i >= 0 {
		rec = t.users[i]
	}
	unlock()

	if i < 0 {
		return errBadLogin
	}
	if err := bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errBadLogin
		}
		return err
	}

	if err := s.signIn(c, rec.User); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec.User)
}

func (s *Server) handleLogout(c echo.Context) error {
	c.SetCookie(auth.ExpiredCookie())
	return c.NoContent(http.StatusNoContent)
}

// handleMe answers from the stored account so role changes show up without a
// new login.
func (s *Server) handleMe(c echo.Context) error {
	id := auth.UserIDFromContext(c.Request().Context())
	t, unlock := s.data(c)
	defer unlock()

	i := t.userIndex(id)
	if i < 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return c.JSON(http.StatusOK, t.users[i].User)
}

func (s *Server) signIn(c echo.Context, u account.User) error {
	token, err := s.signer.Sign(tenant.FromContext(c.Request().Context()), u.ID, u.Email, string(u.Role))
	if err != nil {
		return err
	}
	c.SetCookie(s.signer.Cookie(token))
	return nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *Server) handleListUsers(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	out := make([]account.User, 0, len(t.users))
	for _, u := range t.users {
		out = append(out, u.User)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleSetRole(c echo.Context) error {
	var in struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	role, err := account.ParseRole(in.Role)
	if err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	defer unlock()

	i := t.userIndex(c.Param("id"))
	if i < 0 {
		return notFound("user")
	}
	if t.users[i].Role == account.RoleOwner && role != account.RoleOwner && t.countRole(account.RoleOwner) == 1 {
		return echo.NewHTTPError(http.StatusConflict, "the last owner cannot be demoted")
	}
	t.users[i].Role = role
	return c.JSON(http.StatusOK, t.users[i].User)
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	id := c.Param("id")
	if id == auth.UserIDFromContext(c.Request().Context()) {
		return echo.NewHTTPError(http.StatusBadRequest, "you cannot delete your own account")
	}

	t, unlock := s.data(c)
	defer unlock()

	i := t.userIndex(id)
	if i < 0 {
		return notFound("user")
	}
	t.users = append(t.users[:i], t.users[i+1:]...)
	return c.NoContent(http.StatusNoContent)
}

func (t *tenantData) countRole(r account.Role) int {
	n := 0
	for _, u := range t.users {
		if u.Role == r {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

func (s *Server) handleListModules(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	out := []string{}
	for m, on := range t.modules {
		if on {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleActivateModule(c echo.Context) error {
	var in struct {
		Module string `json:"module"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !knownModules[in.Module] {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown module "+in.Module)
	}

	t, unlock := s.data(c)
	defer unlock()
	t.modules[in.Module] = true
	return c.JSON(http.StatusOK, map[string]string{"module": in.Module, "status": "active"})
}
