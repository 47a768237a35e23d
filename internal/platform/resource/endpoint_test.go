package resource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bakery/storefront/internal/platform/apiclient"
)

func newTestREST(t *testing.T, body string, paginated bool) *REST[item] {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return &REST[item]{Client: c, Path: "/api/summary", Paginated: paginated}
}

func TestREST_ListDecodesServedPage(t *testing.T) {
	ep := newTestREST(t, `{"data":[{"ID":"a"}],"total":21,"page":3,"limit":10}`, true)

	page, err := ep.List(context.Background(), Query{Page: 7})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 21 || page.Page != 3 || page.Limit != 10 || len(page.Items) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	snap := Snapshot[item]{Items: page.Items, Total: page.Total, Page: page.Page, Limit: page.Limit, Query: Query{Page: 7}}
	if snap.Paging().Page != 3 || !snap.HasPrevious() || snap.HasNext() {
		t.Errorf("expected the served last page to win over the request, got %+v", snap.Paging())
	}
}

func TestREST_UnpaginatedListIsPageOne(t *testing.T) {
	ep := newTestREST(t, `[{"ID":"a"},{"ID":"b"}]`, false)

	page, err := ep.List(context.Background(), Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 2 || page.Page != 1 || page.Limit != 2 {
		t.Errorf("unexpected page %+v", page)
	}
}
