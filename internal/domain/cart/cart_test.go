package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/bakery/storefront/internal/domain/catalog"
	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/session"
)

func TestTotal(t *testing.T) {
	c := Cart{Items: map[string]int{"p1": 2, "p2": 1}}
	prices := map[string]decimal.Decimal{"p1": decimal.NewFromInt(1000), "p2": decimal.NewFromInt(2500)}

	if got := Total(c, prices); !got.Equal(decimal.NewFromInt(4500)) {
		t.Errorf("expected 4500, got %s", got)
	}
	if got := Total(Cart{}, prices); !got.IsZero() {
		t.Errorf("expected empty cart to total 0, got %s", got)
	}
}

func TestLines(t *testing.T) {
	c := Cart{Items: map[string]int{"p1": 2, "p2": 1, "gone": 4}}
	products := []catalog.Product{
		{ID: "p1", Name: "Pan", Price: decimal.NewFromInt(1000)},
		{ID: "p2", Name: "Alfajor", Price: decimal.NewFromInt(2500)},
	}
	lines := Lines(c, products)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Name != "Alfajor" || !lines[1].Subtotal.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("unexpected lines %+v", lines)
	}
}

func TestService_SendsSessionAndLoadsSummary(t *testing.T) {
	var sessions []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case Path:
			sessions = append(sessions, r.Header.Get(session.Header))
			w.Write([]byte(`{"items":{"p1":2,"p2":1}}`))
		case catalog.ProductsPath:
			json.NewEncoder(w).Encode([]catalog.Product{
				{ID: "p1", Name: "Pan", Price: decimal.NewFromInt(1000)},
				{ID: "p2", Name: "Alfajor", Price: decimal.NewFromInt(2500)},
			})
		case CheckoutPath:
			sessions = append(sessions, r.Header.Get(session.Header))
			w.Write([]byte(`{"order_id":"ord-1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Session: session.NewMemoryStore("sess-9"), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	svc := NewService(c)
	ctx := context.Background()

	sum, err := svc.LoadSummary(ctx)
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if !sum.Total.Equal(decimal.NewFromInt(4500)) || len(sum.Lines) != 2 {
		t.Errorf("unexpected summary %+v", sum)
	}

	o, err := svc.Checkout(ctx)
	if err != nil || o.OrderID != "ord-1" {
		t.Fatalf("Checkout: %+v %v", o, err)
	}
	for _, s := range sessions {
		if s != "sess-9" {
			t.Errorf("expected session header sess-9, got %q", s)
		}
	}
}

func TestService_AddRejectsNonPositive(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.Add(context.Background(), "p1", 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}
