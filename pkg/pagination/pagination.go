package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds 1-based page pagination parameters.
type Params struct {
	Page  int
	Limit int
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return New(page, limit)
}

// New clamps page and limit into their valid ranges.
func New(page, limit int) Params {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Offset returns the number of items before the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// HasPrevious reports whether a "previous" control should be enabled.
func (p Params) HasPrevious() bool {
	return p.Page > 1
}

// HasNext reports whether a "next" control should be enabled.
func (p Params) HasNext(total int) bool {
	return p.Page*p.Limit < total
}

// Last returns the number of the last page of total items; an empty
// collection still has page 1.
func (p Params) Last(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + p.Limit - 1) / p.Limit
}

// Next returns the following page, or p itself when already on the last one.
func (p Params) Next(total int) Params {
	if !p.HasNext(total) {
		return p
	}
	return Params{Page: p.Page + 1, Limit: p.Limit}
}

// Previous returns the preceding page, or p itself when already on the first.
func (p Params) Previous() Params {
	if !p.HasPrevious() {
		return p
	}
	return Params{Page: p.Page - 1, Limit: p.Limit}
}

// Window returns the [start, end) bounds of the page within n items.
func (p Params) Window(n int) (int, int) {
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}

// Response wraps a paginated API response.
type Response struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data:  data,
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
	}
}
