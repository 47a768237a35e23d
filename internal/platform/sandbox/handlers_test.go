package sandbox

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bakery/storefront/internal/domain/account"
	"github.com/bakery/storefront/internal/platform/middleware"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(Options{Logger: zerolog.Nop(), PasswordCost: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), err)
	}
	return body.Detail
}

func TestCartRequiresSession(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodGet, "/api/cart", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := detail(t, rec); got != "missing cart session" {
		t.Errorf("unexpected detail %q", got)
	}
}

func TestMutationsRequireSignIn(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/categories", "/api/products", "/api/locations"} {
		rec := serve(s, http.MethodPost, path, `{"name":"x"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("POST %s: expected 401, got %d", path, rec.Code)
		}
	}
	if rec := serve(s, http.MethodGet, "/api/clients/", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected clinic reads to need a user, got %d", rec.Code)
	}
}

func TestPublicReads(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/products", "/api/categories", "/api/locations", "/health"} {
		if rec := serve(s, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestStaffRoles(t *testing.T) {
	roles := staffRoles()
	if len(roles) != len(account.Roles)-1 {
		t.Fatalf("expected every role but one, got %v", roles)
	}
	for _, r := range roles {
		if r == string(account.RoleCustomer) {
			t.Fatal("customers must not reach the admin panel")
		}
	}
}

func TestSummaryRowsNewestFirst(t *testing.T) {
	cfg := DefaultSeedConfig()
	cfg.Seed = 11
	store := NewStore()
	if _, err := NewSeeder(store, cfg).Generate("t"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	td := store.tenant("t")

	rows := td.summaryRows()
	if len(rows) != len(td.patients) {
		t.Fatalf("expected a row per patient, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].LastVisit < rows[i].LastVisit {
			t.Fatalf("rows out of order at %d: %s before %s", i, rows[i-1].LastVisit, rows[i].LastVisit)
		}
	}
	for _, r := range rows {
		if r.Visits != cfg.RecordsPerPatient || r.OwnerName == "" {
			t.Fatalf("unexpected row %+v", r)
		}
	}
}

func TestTakeStockSpansLocations(t *testing.T) {
	td := newTenantData()
	g := NewDataGenerator(1)
	a, b := g.Location(0), g.Location(1)
	td.locations = append(td.locations, a, b)
	p := g.Product(productDef{Name: "Baguette", Price: "1.80"}, "Panadería")
	td.products = append(td.products, p)
	td.setStock(p.ID, a.ID, 2)
	td.setStock(p.ID, b.ID, 5)

	td.takeStock(p, 4)
	if td.stock[p.ID][a.ID] != 0 || td.stock[p.ID][b.ID] != 3 {
		t.Errorf("unexpected stock %v", td.stock[p.ID])
	}
	if got := td.withStock(p, "").Stock; got != 3 {
		t.Errorf("expected derived stock 3, got %d", got)
	}
}
