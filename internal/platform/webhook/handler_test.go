package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bakery/storefront/internal/platform/tenant"
)

func newTestEcho(m *Manager) *echo.Echo {
	e := echo.New()
	e.Use(tenant.Middleware("panaderia"))
	NewHandler(m).RegisterRoutes(e.Group("/api"))
	return e
}

func do(e *echo.Echo, method, path, body, slug string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if slug != "" {
		req.Header.Set(tenant.Header, slug)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_RegisterListDelete(t *testing.T) {
	e := newTestEcho(newTestManager())

	rec := do(e, http.MethodPost, "/api/webhooks", `{"url":"https://example.com/hook","events":["order.placed"]}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var ep Endpoint
	if err := json.Unmarshal(rec.Body.Bytes(), &ep); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if ep.Secret == "" {
		t.Error("expected the generated secret in the create response")
	}

	rec = do(e, http.MethodGet, "/api/webhooks", "", "")
	var listed []Endpoint
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != ep.ID || listed[0].Secret != "" {
		t.Errorf("unexpected list %+v", listed)
	}

	if rec := do(e, http.MethodGet, "/api/webhooks", "", "otra"); strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected an empty list for another tenant, got %s", rec.Body.String())
	}
	if rec := do(e, http.MethodDelete, "/api/webhooks/"+ep.ID, "", "otra"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 across tenants, got %d", rec.Code)
	}
	if rec := do(e, http.MethodDelete, "/api/webhooks/"+ep.ID, "", ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_RejectsBadInput(t *testing.T) {
	e := newTestEcho(newTestManager())
	rec := do(e, http.MethodPost, "/api/webhooks", `{"url":"example.com","events":["*"]}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	rec = do(e, http.MethodPost, "/api/webhooks", `{"url":"https://example.com/hook"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_PauseAndTest(t *testing.T) {
	_, url := newReceiver(t)
	m := newTestManager()
	e := newTestEcho(m)
	ep := mustRegister(t, m, "panaderia", url, "*")

	rec := do(e, http.MethodPost, "/api/webhooks/"+ep.ID+"/pause", "", "")
	var paused Endpoint
	json.Unmarshal(rec.Body.Bytes(), &paused)
	if paused.Status != StatusPaused {
		t.Errorf("expected paused, got %+v", paused)
	}

	rec = do(e, http.MethodPost, "/api/webhooks/"+ep.ID+"/test", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var d Delivery
	json.Unmarshal(rec.Body.Bytes(), &d)
	if !d.Succeeded || d.EventType != EventPing {
		t.Errorf("unexpected delivery %+v", d)
	}

	rec = do(e, http.MethodGet, "/api/webhooks/"+ep.ID+"/deliveries", "", "")
	var log []Delivery
	json.Unmarshal(rec.Body.Bytes(), &log)
	if len(log) != 1 || log[0].ID != d.ID {
		t.Errorf("expected the ping in the log, got %+v", log)
	}
}
