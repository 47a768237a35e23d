package sandbox

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bakery/storefront/internal/domain/account"
	"github.com/bakery/storefront/internal/platform/auth"
	"github.com/bakery/storefront/internal/platform/blobstore"
	"github.com/bakery/storefront/internal/platform/middleware"
	"github.com/bakery/storefront/internal/platform/tenant"
	"github.com/bakery/storefront/internal/platform/webhook"
)

// SessionHeader carries the anonymous cart session.
const SessionHeader = "x-session-id"

// Options configures a sandbox Server.
type Options struct {
	Logger        zerolog.Logger
	Secret        []byte
	SessionTTL    time.Duration
	DefaultTenant string
	// Prefixes are the path segments accepted as tenant slugs, as in
	// /panaderia/api/products.
	Prefixes     []string
	CORSOrigins  []string
	PasswordCost int
	// Seed, when set, fills DefaultTenant before the first request.
	Seed *SeedConfig
	// Now overrides the clock used for orders and session expiry.
	Now func() time.Time
	// WebhookClient posts event deliveries; nil uses a 10s timeout client.
	WebhookClient *http.Client
}

// Server is the in-memory storefront backend.
type Server struct {
	e      *echo.Echo
	store  *Store
	blobs  blobstore.BlobStore
	signer *auth.Signer
	hooks  *webhook.Manager
	logger zerolog.Logger
	cost   int
	now    func() time.Time
}

func New(opts Options) (*Server, error) {
	if opts.DefaultTenant == "" {
		opts.DefaultTenant = "default"
	}
	if opts.PasswordCost == 0 {
		opts.PasswordCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("sandbox-secret")
	}

	hookOpts := []webhook.Option{webhook.WithLogger(opts.Logger), webhook.WithClock(opts.Now)}
	if opts.WebhookClient != nil {
		hookOpts = append(hookOpts, webhook.WithHTTPClient(opts.WebhookClient))
	}

	s := &Server{
		e:      echo.New(),
		store:  NewStore(),
		blobs:  blobstore.NewInMemoryBlobStore(),
		signer: auth.NewSigner(opts.Secret, opts.SessionTTL),
		hooks:  webhook.NewManager(webhook.NewMemoryStore(), hookOpts...),
		logger: opts.Logger,
		cost:   opts.PasswordCost,
		now:    opts.Now,
	}

	if opts.Seed != nil {
		if _, err := NewSeeder(s.store, *opts.Seed).Generate(opts.DefaultTenant); err != nil {
			return nil, err
		}
	}

	s.routes(opts)
	return s, nil
}

// Handler returns the HTTP handler, for httptest.NewServer and the like.
func (s *Server) Handler() http.Handler { return s.e }

// Echo exposes the underlying router for Start and Shutdown.
func (s *Server) Echo() *echo.Echo { return s.e }

// Store exposes the tenant data.
func (s *Server) Store() *Store { return s.store }

// Drain waits for webhook deliveries still in flight. Call it after the
// HTTP server has shut down.
func (s *Server) Drain() { s.hooks.Wait() }

// publish notifies the request tenant's webhooks.
func (s *Server) publish(c echo.Context, typ, subject string, data interface{}) {
	s.hooks.Publish(tenant.FromContext(c.Request().Context()), typ, subject, data)
}

func (s *Server) routes(opts Options) {
	e := s.e
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(s.logger)

	e.Pre(tenant.StripPrefix(opts.Prefixes))

	e.Use(middleware.Recovery(s.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(s.logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, tenant.Header, SessionHeader, middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(tenant.Middleware(opts.DefaultTenant))
	e.Use(auth.Session(s.signer))
	e.Use(middleware.BodyLimit("1M", "12M"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	staff := auth.RequireRole(staffRoles()...)
	owners := auth.RequireRole(string(account.RoleOwner), string(account.RoleAdmin))

	// Auth
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout)
	api.GET("/auth/me", s.handleMe, auth.RequireUser())

	// Users
	api.GET("/users", s.handleListUsers, staff)
	api.PATCH("/users/:id", s.handleSetRole, owners)
	api.DELETE("/users/:id", s.handleDeleteUser, owners)

	// Modules
	api.GET("/modules", s.handleListModules)
	api.POST("/modules/activate", s.handleActivateModule, owners)

	// Catalog
	api.GET("/categories", s.handleListCategories)
	api.POST("/categories", s.handleCreateCategory, staff)
	api.PATCH("/categories/:id", s.handleRenameCategory, staff)
	api.DELETE("/categories/:id", s.handleDeleteCategory, staff)

	api.GET("/products", s.handleListProducts)
	api.GET("/products/:id", s.handleGetProduct)
	api.POST("/products", s.handleCreateProduct, staff)
	api.PATCH("/products/:id", s.handleUpdateProduct, staff)
	api.DELETE("/products/:id", s.handleDeleteProduct, staff)

	// Locations and stock
	api.GET("/locations", s.handleListLocations)
	api.POST("/locations", s.handleCreateLocation, staff)
	api.PATCH("/locations/:id", s.handleUpdateLocation, staff)
	api.DELETE("/locations/:id", s.handleDeleteLocation, staff)
	api.GET("/locations/:id/inventory", s.handleLocationInventory, staff)
	api.POST("/locations/:id/inventory", s.handleSetLocationInventory, staff)
	api.GET("/products/:id/inventory", s.handleProductInventory, staff)
	api.POST("/products/:id/inventory", s.handleSetProductInventory, staff)

	// Cart
	api.GET("/cart", s.handleGetCart, requireCartSession)
	api.POST("/cart", s.handleAddToCart, requireCartSession)
	api.DELETE("/cart", s.handleClearCart, requireCartSession)
	api.POST("/checkout", s.handleCheckout, requireCartSession)

	// Uploads
	blobs := blobstore.NewBlobHandler(s.blobs)
	blobs.RegisterRoutes(api, staff)
	blobs.RegisterPublic(e)

	// Clinic
	cl := []echo.MiddlewareFunc{auth.RequireUser(), s.requireModule(ModuleClinic)}
	api.GET("/clients/", s.handleListClients, cl...)
	api.POST("/clients/", s.handleCreateClient, cl...)
	api.PUT("/clients/:id/", s.handleUpdateClient, cl...)
	api.DELETE("/clients/:id/", s.handleDeleteClient, cl...)
	api.GET("/patients/", s.handleListPatients, cl...)
	api.POST("/patients/", s.handleCreatePatient, cl...)
	api.PUT("/patients/:id/", s.handleUpdatePatient, cl...)
	api.DELETE("/patients/:id/", s.handleDeletePatient, cl...)
	api.GET("/clinical-records/", s.handleListRecords, cl...)
	api.POST("/clinical-records/", s.handleCreateRecord, cl...)
	api.PUT("/clinical-records/:id/", s.handleUpdateRecord, cl...)
	api.DELETE("/clinical-records/:id/", s.handleDeleteRecord, cl...)
	api.GET("/clinical-records-summary/", s.handleSummary, cl...)

	// Webhooks
	webhook.NewHandler(s.hooks).RegisterRoutes(api, owners)

	// Sandbox administration
	NewSeedHandler(s.store).RegisterRoutes(e.Group("/sandbox"), owners)
}

// staffRoles are the roles allowed into the admin panel.
func staffRoles() []string {
	out := make([]string, 0, len(account.Roles))
	for _, r := range account.Roles {
		if r.CanAccessAdmin() {
			out = append(out, string(r))
		}
	}
	return out
}

// data returns the request tenant's state, locked. Callers defer the
// returned unlock.
func (s *Server) data(c echo.Context) (*tenantData, func()) {
	t := s.store.tenant(tenant.FromContext(c.Request().Context()))
	t.mu.Lock()
	return t, t.mu.Unlock
}

func requireCartSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get(SessionHeader) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "missing cart session")
		}
		return next(c)
	}
}

func (s *Server) requireModule(module string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			t, unlock := s.data(c)
			active := t.modules[module]
			unlock()
			if !active {
				return echo.NewHTTPError(http.StatusForbidden, "module "+module+" is not active")
			}
			return next(c)
		}
	}
}

func notFound(what string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, what+" not found")
}

func badRequest(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
