package account

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/resource"
)

const (
	UsersPath          = "/api/users"
	authPath           = "/api/auth"
	moduleActivatePath = "/api/modules/activate"
)

// Auth wraps the cookie-session endpoints. The session cookie lives in the
// client's jar.
type Auth struct {
	client *apiclient.Client
}

func NewAuth(client *apiclient.Client) *Auth {
	return &Auth{client: client}
}

// Me returns the signed-in user, or nil when there is no session.
func (a *Auth) Me(ctx context.Context) (*User, error) {
	var u User
	if err := a.client.Get(ctx, authPath+"/me", nil, &u); err != nil {
		if apiclient.IsStatus(err, http.StatusUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (a *Auth) Login(ctx context.Context, c Credentials) (*User, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var u User
	if err := a.client.Post(ctx, authPath+"/login", c, &u); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &u, nil
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.client.Post(ctx, authPath+"/logout", nil, nil)
}

func (a *Auth) Register(ctx context.Context, r Registration) (*User, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var u User
	if err := a.client.Post(ctx, authPath+"/register", r, &u); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &u, nil
}

// Users backs the users admin tab. Users are only listed, re-roled and
// removed here; accounts are created by registering.
type Users struct {
	*resource.Controller[User]
}

func NewUsers(client *apiclient.Client, opts ...resource.Option) *Users {
	ep := &resource.REST[User]{Client: client, Path: UsersPath}
	return &Users{Controller: resource.New[User]("user", ep, opts...)}
}

// SetRole changes a user's role.
func (u *Users) SetRole(ctx context.Context, id string, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return u.Update(ctx, id, map[string]Role{"role": role})
}

// ActivateModule turns on an optional tenant module such as "clinic".
func ActivateModule(ctx context.Context, client *apiclient.Client, module string) error {
	return client.Post(ctx, moduleActivatePath, map[string]string{"module": module}, nil)
}
