package resource

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bakery/storefront/internal/platform/apiclient"
)

// Query holds the list filters a screen can send.
type Query struct {
	Search     string
	Category   string
	LocationID string
	Page       int
	Limit      int
	// Extra carries screen-specific parameters such as owner_name.
	Extra url.Values
}

// Values encodes q using the backend's parameter names.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.LocationID != "" {
		v.Set("location_id", q.LocationID)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	for k, vals := range q.Extra {
		for _, x := range vals {
			if x != "" {
				v.Add(k, x)
			}
		}
	}
	return v
}

// Page is one fetched slice of a collection. Total is the size of the whole
// collection; unpaginated endpoints report len(Items).
type Page[T any] struct {
	Items []T
	Total int
	// Page and Limit are what the backend actually served. An unpaginated
	// endpoint serves everything as page 1.
	Page  int
	Limit int
}

// Endpoint is the backend side of one collection.
type Endpoint[T any] interface {
	List(ctx context.Context, q Query) (Page[T], error)
	Create(ctx context.Context, payload interface{}) error
	Update(ctx context.Context, id string, payload interface{}) error
	Delete(ctx context.Context, id string) error
}

// REST is an Endpoint over a conventional collection path.
type REST[T any] struct {
	Client *apiclient.Client
	Path   string
	// UpdateMethod defaults to PATCH.
	UpdateMethod string
	// TrailingSlash appends "/" to item paths, as the clinic API expects.
	TrailingSlash bool
	// Paginated lists answer {data, total} instead of a bare array.
	Paginated bool
}

type pagedBody[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (r *REST[T]) List(ctx context.Context, q Query) (Page[T], error) {
	if r.Paginated {
		var body pagedBody[T]
		if err := r.Client.Get(ctx, r.Path, q.Values(), &body); err != nil {
			return Page[T]{}, err
		}
		return Page[T]{Items: body.Data, Total: body.Total, Page: body.Page, Limit: body.Limit}, nil
	}

	var items []T
	if err := r.Client.Get(ctx, r.Path, q.Values(), &items); err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Items: items, Total: len(items), Page: 1, Limit: len(items)}, nil
}

// Create posts payload as JSON, or as multipart when it is *apiclient.Multipart.
func (r *REST[T]) Create(ctx context.Context, payload interface{}) error {
	return r.Client.Do(ctx, request(http.MethodPost, r.Path, payload), nil)
}

func (r *REST[T]) Update(ctx context.Context, id string, payload interface{}) error {
	method := r.UpdateMethod
	if method == "" {
		method = http.MethodPatch
	}
	return r.Client.Do(ctx, request(method, r.ItemPath(id), payload), nil)
}

func (r *REST[T]) Delete(ctx context.Context, id string) error {
	return r.Client.Delete(ctx, r.ItemPath(id))
}

// ItemPath returns the path of one member of the collection.
func (r *REST[T]) ItemPath(id string) string {
	p := strings.TrimRight(r.Path, "/") + "/" + url.PathEscape(id)
	if r.TrailingSlash {
		p += "/"
	}
	return p
}

func request(method, path string, payload interface{}) apiclient.Request {
	req := apiclient.Request{Method: method, Path: path}
	if form, ok := payload.(*apiclient.Multipart); ok {
		req.Form = form
	} else {
		req.Body = payload
	}
	return req
}
