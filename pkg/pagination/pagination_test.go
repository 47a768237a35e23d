package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestFromContext_Defaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Page != 1 {
		t.Errorf("expected default page 1, got %d", p.Page)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=25", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Page != 3 {
		t.Errorf("expected page 3, got %d", p.Page)
	}
	if p.Limit != 25 {
		t.Errorf("expected limit 25, got %d", p.Limit)
	}
	if p.Offset() != 50 {
		t.Errorf("expected offset 50, got %d", p.Offset())
	}
}

func TestFromContext_MaxLimit(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&page=-2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	p := FromContext(c)

	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
	if p.Page != 1 {
		t.Errorf("expected negative page clamped to 1, got %d", p.Page)
	}
}

func TestParams_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		page    int
		limit   int
		total   int
		wantPrv bool
		wantNxt bool
	}{
		{"first page of many", 1, 10, 35, false, true},
		{"middle page", 2, 10, 35, true, true},
		{"last partial page", 4, 10, 35, true, false},
		{"exact fit", 2, 10, 20, true, false},
		{"empty", 1, 10, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.page, tt.limit)
			if got := p.HasPrevious(); got != tt.wantPrv {
				t.Errorf("HasPrevious() = %v, want %v", got, tt.wantPrv)
			}
			if got := p.HasNext(tt.total); got != tt.wantNxt {
				t.Errorf("HasNext(%d) = %v, want %v", tt.total, got, tt.wantNxt)
			}
		})
	}
}

func TestParams_NextPreviousStopAtEdges(t *testing.T) {
	p := New(1, 10)
	if p.Previous().Page != 1 {
		t.Errorf("expected Previous on page 1 to stay on 1")
	}
	p = p.Next(15)
	if p.Page != 2 {
		t.Fatalf("expected page 2, got %d", p.Page)
	}
	if p.Next(15).Page != 2 {
		t.Errorf("expected Next on last page to stay on 2")
	}
}

func TestParams_Window(t *testing.T) {
	start, end := New(2, 10).Window(15)
	if start != 10 || end != 15 {
		t.Errorf("expected [10,15), got [%d,%d)", start, end)
	}
	start, end = New(5, 10).Window(15)
	if start != 15 || end != 15 {
		t.Errorf("expected empty window past the end, got [%d,%d)", start, end)
	}
}

func TestParams_Last(t *testing.T) {
	tests := []struct {
		limit, total, want int
	}{
		{10, 0, 1},
		{10, 1, 1},
		{10, 10, 1},
		{10, 11, 2},
		{10, 25, 3},
	}
	for _, tt := range tests {
		if got := New(1, tt.limit).Last(tt.total); got != tt.want {
			t.Errorf("Last(%d) with limit %d = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
