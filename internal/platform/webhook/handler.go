package webhook

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bakery/storefront/internal/platform/tenant"
)

// Handler exposes a Manager over HTTP, scoped to the request tenant.
type Handler struct {
	manager *Manager
}

func NewHandler(m *Manager) *Handler {
	return &Handler{manager: m}
}

// RegisterRoutes mounts the webhook endpoints on the /api group.
func (h *Handler) RegisterRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.GET("/webhooks", h.list, mw...)
	g.POST("/webhooks", h.register, mw...)
	g.GET("/webhooks/:id", h.get, mw...)
	g.DELETE("/webhooks/:id", h.remove, mw...)
	g.POST("/webhooks/:id/pause", h.pause, mw...)
	g.POST("/webhooks/:id/resume", h.resume, mw...)
	g.POST("/webhooks/:id/test", h.test, mw...)
	g.GET("/webhooks/:id/deliveries", h.deliveries, mw...)
}

type registerRequest struct {
	URL    string   `json:"url"`
	Secret string   `json:"secret"`
	Events []string `json:"events"`
}

func (h *Handler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ep, err := h.manager.Register(slug(c), req.URL, req.Secret, req.Events)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, ep)
}

func (h *Handler) list(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.Endpoints(slug(c)))
}

func (h *Handler) get(c echo.Context) error {
	ep, err := h.manager.Endpoint(slug(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ep)
}

func (h *Handler) remove(c echo.Context) error {
	if err := h.manager.Remove(slug(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) pause(c echo.Context) error {
	ep, err := h.manager.Pause(slug(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ep)
}

func (h *Handler) resume(c echo.Context) error {
	ep, err := h.manager.Resume(slug(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ep)
}

// test answers 200 with the delivery even when the endpoint refused it; the
// outcome is in the body.
func (h *Handler) test(c echo.Context) error {
	d, err := h.manager.Ping(c.Request().Context(), slug(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) deliveries(c echo.Context) error {
	log, err := h.manager.Deliveries(slug(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, log)
}

func slug(c echo.Context) string {
	return tenant.FromContext(c.Request().Context())
}

func httpError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return err
}
