package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bakery/storefront/internal/platform/confirm"
	"github.com/bakery/storefront/internal/platform/sandbox"
)

// ---------------------------------------------------------------------------
// Terminal helpers
// ---------------------------------------------------------------------------

func TestTermAsker(t *testing.T) {
	p := confirm.Prompt{Title: "Delete product", Message: "Delete product p1?"}
	tests := []struct {
		name  string
		input string
		yes   bool
		want  bool
	}{
		{"yes flag", "", true, true},
		{"y", "y\n", false, true},
		{"si", "sí\n", false, true},
		{"no", "n\n", false, false},
		{"blank", "\n", false, false},
		{"eof", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			a := termAsker{in: strings.NewReader(tt.input), out: &out, yes: tt.yes}
			got, err := a.Ask(context.Background(), p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Ask = %v, want %v", got, tt.want)
			}
			if !tt.yes && !strings.Contains(out.String(), "Delete product p1?") {
				t.Errorf("expected the prompt to be shown, got %q", out.String())
			}
		})
	}
}

func TestParseStock(t *testing.T) {
	got, err := parseStock([]string{"loc-1=3", " loc-2 = 0 "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].LocationID != "loc-1" || got[0].Quantity != 3 || got[1].LocationID != "loc-2" {
		t.Errorf("unexpected stock %+v", got)
	}

	for _, bad := range []string{"loc-1", "=3", "loc-1=-1", "loc-1=two"} {
		if _, err := parseStock([]string{bad}); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := parseDecimal(" 1,50 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.StringFixed(2) != "1.50" {
		t.Errorf("expected 1.50, got %s", d)
	}
}

// ---------------------------------------------------------------------------
// Commands against the sandbox
// ---------------------------------------------------------------------------

type console struct {
	t   *testing.T
	api string
}

func newConsole(t *testing.T) *console {
	t.Helper()
	cfg := sandbox.DefaultSeedConfig()
	cfg.Seed = 42
	srv, err := sandbox.New(sandbox.Options{Logger: zerolog.Nop(), PasswordCost: 4, Seed: &cfg})
	if err != nil {
		t.Fatalf("sandbox.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session"))
	t.Setenv("ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TENANT_SLUG", "")
	return &console{t: t, api: ts.URL}
}

// run executes one command as a separate process would: a new root command,
// sharing only the session files.
func (c *console) run(stdin string, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	root.SetArgs(append([]string{"--api", c.api}, args...))
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func (c *console) mustRun(args ...string) (stdout, stderr string) {
	c.t.Helper()
	stdout, stderr, err := c.run("", args...)
	if err != nil {
		c.t.Fatalf("%s: %v\nstderr: %s", strings.Join(args, " "), err, stderr)
	}
	return stdout, stderr
}

// firstID returns the first column of the first data row of a table.
func firstID(t *testing.T, table string) string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(table), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected a table with rows, got %q", table)
	}
	return strings.Fields(lines[1])[0]
}

func TestConsole_SignInPersistsAcrossRuns(t *testing.T) {
	c := newConsole(t)

	_, stderr := c.mustRun("auth", "register", "--email", "owner@panaderia.test", "--password", "s3cret", "--name", "Owner")
	if !strings.Contains(stderr, "✓ registered owner@panaderia.test as OWNER") {
		t.Errorf("unexpected feedback %q", stderr)
	}

	out, _ := c.mustRun("auth", "me")
	if !strings.Contains(out, "owner@panaderia.test") {
		t.Fatalf("expected the session to survive, got %q", out)
	}

	c.mustRun("auth", "logout")
	out, _ = c.mustRun("auth", "me")
	if !strings.Contains(out, "not signed in") {
		t.Errorf("expected signed out, got %q", out)
	}

	_, stderr, err := c.run("wrong\n", "auth", "login", "--email", "owner@panaderia.test")
	if err == nil {
		t.Fatal("expected a bad password to fail")
	}
	if !strings.Contains(stderr, "✗ invalid email or password") {
		t.Errorf("expected the backend detail, got %q", stderr)
	}
}

func TestConsole_CatalogCartAndCheckout(t *testing.T) {
	c := newConsole(t)
	c.mustRun("auth", "register", "--email", "owner@panaderia.test", "--password", "s3cret")

	_, stderr := c.mustRun("categories", "create", "Dulces")
	if !strings.Contains(stderr, "✓ category created") {
		t.Errorf("unexpected feedback %q", stderr)
	}

	out, _ := c.mustRun("products", "list", "--search", "croissant")
	if !strings.Contains(out, "Croissant") {
		t.Fatalf("expected Croissant, got %q", out)
	}
	id := firstID(t, out)

	_, stderr = c.mustRun("cart", "add", id, "2")
	if !strings.Contains(stderr, "now 2") {
		t.Errorf("unexpected feedback %q", stderr)
	}
	out, _ = c.mustRun("checkout")
	if !strings.Contains(out, "3.00") || !strings.Contains(out, "order:") {
		t.Errorf("expected a priced summary and an order id, got %q", out)
	}
	out, _ = c.mustRun("cart", "show")
	if !strings.Contains(out, "cart is empty") {
		t.Errorf("expected an empty cart after checkout, got %q", out)
	}
}

func TestConsole_DeleteAsksFirst(t *testing.T) {
	c := newConsole(t)
	c.mustRun("auth", "register", "--email", "owner@panaderia.test", "--password", "s3cret")
	out, _ := c.mustRun("products", "list", "--search", "baguette")
	id := firstID(t, out)

	_, stderr, err := c.run("n\n", "products", "delete", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "cancelled") {
		t.Errorf("expected the delete to be cancelled, got %q", stderr)
	}
	if out, _ := c.mustRun("products", "list", "--search", "baguette"); !strings.Contains(out, id) {
		t.Fatal("a declined delete must not remove the product")
	}

	_, stderr = c.mustRun("--yes", "products", "delete", id)
	if !strings.Contains(stderr, "✓ product deleted") {
		t.Errorf("unexpected feedback %q", stderr)
	}
	if out, _ := c.mustRun("products", "list", "--search", "baguette"); strings.Contains(out, id) {
		t.Error("expected the product to be gone")
	}
}

func TestConsole_InventorySteps(t *testing.T) {
	c := newConsole(t)
	c.mustRun("auth", "register", "--email", "owner@panaderia.test", "--password", "s3cret")

	product := firstID(t, mustOut(c, "products", "list", "--search", "croissant"))
	location := firstID(t, mustOut(c, "locations", "list"))

	out, _ := c.mustRun("inventory", "set", product, location, "5")
	if !strings.HasSuffix(strings.TrimSpace(out), ": 5") {
		t.Fatalf("expected 5, got %q", out)
	}
	out, _ = c.mustRun("inventory", "dec", product, location, "--by", "2")
	if !strings.HasSuffix(strings.TrimSpace(out), ": 3") {
		t.Errorf("expected 3, got %q", out)
	}
	out, _ = c.mustRun("inventory", "dec", product, location, "--by", "100")
	if !strings.HasSuffix(strings.TrimSpace(out), ": 0") {
		t.Errorf("expected the decrement to stop at 0, got %q", out)
	}

	_, _, err := c.run("", "inventory", "set", "--", product, location, "-1")
	if err == nil {
		t.Error("expected a negative quantity to be rejected")
	}

	out, _ = c.mustRun("inventory", "at", location)
	if !strings.Contains(out, "Croissant") {
		t.Errorf("expected the location listing to name the product, got %q", out)
	}
}

func TestConsole_ClinicSummary(t *testing.T) {
	c := newConsole(t)
	c.mustRun("auth", "register", "--email", "vet@clinic.test", "--password", "s3cret")

	out, _ := c.mustRun("summary", "--limit", "2")
	if !strings.Contains(out, "page 1 of") || !strings.Contains(out, "[next]") || strings.Contains(out, "[prev]") {
		t.Errorf("expected a page footer, got %q", out)
	}

	out, _, err := c.run("nobody-has-this-name\n", "summary", "--watch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "no patients") {
		t.Errorf("expected the settled search to find nobody, got %q", out)
	}
}

func TestConsole_SummaryPagesStopAtTheEnds(t *testing.T) {
	c := newConsole(t)
	c.mustRun("auth", "register", "--email", "vet@clinic.test", "--password", "s3cret")

	out, notes, err := c.run("next\nprev\n", "summary", "--watch", "--limit", "100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "page 1 of 1,") || strings.Contains(out, "[next]") {
		t.Errorf("expected a single page, got %q", out)
	}
	if !strings.Contains(notes, "no next page") || !strings.Contains(notes, "no previous page") {
		t.Errorf("expected both moves to be refused, got %q", notes)
	}

	out, notes, err = c.run("prev\nnext\nprev\npage=99\n", "summary", "--watch", "--limit", "10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(notes, "no previous page") != 1 || !strings.Contains(notes, "no page 99") {
		t.Errorf("expected prev refused once on page 1 and page 99 refused, got %q", notes)
	}
	if !strings.Contains(out, "page 2 of") || !strings.Contains(out, "[prev]") {
		t.Errorf("expected next to reach page 2, got %q", out)
	}
	if strings.Count(out, "page 1 of") != 2 {
		t.Errorf("expected prev to return to page 1, got %q", out)
	}
}

func TestConsole_ProductSearchSettlesAtEOF(t *testing.T) {
	c := newConsole(t)

	out, _, err := c.run("napo\n", "products", "search")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Napolitana de chocolate") || strings.Contains(out, "Croissant") {
		t.Errorf("expected only the napolitana, got %q", out)
	}
}

func TestConsole_Webhooks(t *testing.T) {
	c := newConsole(t)
	c.mustRun("auth", "register", "--email", "owner@panaderia.test", "--password", "s3cret")

	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer hook.Close()

	out, stderr := c.mustRun("webhooks", "add", hook.URL, "--event", "order.placed", "--event", "product.*")
	if !strings.Contains(stderr, "✓ webhook created") || !strings.Contains(out, "secret: whsec_") {
		t.Fatalf("unexpected add output %q / %q", out, stderr)
	}

	out, _ = c.mustRun("webhooks", "list")
	if !strings.Contains(out, "order.placed,product.*") || !strings.Contains(out, "active") {
		t.Errorf("unexpected list %q", out)
	}
	id := firstID(t, out)

	_, stderr = c.mustRun("webhooks", "test", id)
	if !strings.Contains(stderr, "✓ ping delivered (200)") {
		t.Errorf("unexpected feedback %q", stderr)
	}
	out, _ = c.mustRun("webhooks", "deliveries", id)
	if !strings.Contains(out, "webhook.ping") {
		t.Errorf("expected the ping in the log, got %q", out)
	}

	c.mustRun("webhooks", "pause", id)
	if out, _ := c.mustRun("webhooks", "list"); !strings.Contains(out, "paused") {
		t.Errorf("expected the webhook to be paused, got %q", out)
	}

	_, stderr = c.mustRun("--yes", "webhooks", "delete", id)
	if !strings.Contains(stderr, "✓ webhook deleted") {
		t.Errorf("unexpected feedback %q", stderr)
	}
	if out, _ := c.mustRun("webhooks", "list"); !strings.Contains(out, "no webhooks") {
		t.Errorf("expected no webhooks, got %q", out)
	}
}

func mustOut(c *console, args ...string) string {
	c.t.Helper()
	out, _ := c.mustRun(args...)
	return out
}
