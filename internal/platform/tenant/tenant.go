// Package tenant resolves which store a console talks to and carries that
// choice to the backend in the X-Tenant-Slug header.
package tenant

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

// Header is the request header carrying the tenant slug.
const Header = "X-Tenant-Slug"

type contextKey string

const slugKey contextKey = "tenant_slug"

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Source records where a slug was found.
type Source string

const (
	SourceNone      Source = ""
	SourceExplicit  Source = "explicit"
	SourcePath      Source = "path"
	SourceSubdomain Source = "subdomain"
)

// Info is the resolved tenant. BasePath is non-empty only when the slug was
// taken from the URL path, in which case every API path is prefixed with it.
type Info struct {
	Slug     string
	BasePath string
	Source   Source
}

// Resolve picks a tenant slug for target. An explicit slug wins; otherwise the
// first path segment is used if it is one of the known prefixes; otherwise the
// leftmost host label is used when the host has at least three labels.
func Resolve(target *url.URL, explicit string, knownPrefixes []string) (Info, error) {
	if explicit != "" {
		slug := strings.ToLower(explicit)
		if !slugPattern.MatchString(slug) {
			return Info{}, fmt.Errorf("invalid tenant slug %q", explicit)
		}
		return Info{Slug: slug, Source: SourceExplicit}, nil
	}
	if target == nil {
		return Info{}, nil
	}

	first := strings.SplitN(strings.TrimPrefix(target.Path, "/"), "/", 2)[0]
	for _, p := range knownPrefixes {
		if strings.EqualFold(first, p) {
			slug := strings.ToLower(p)
			return Info{Slug: slug, BasePath: "/" + slug, Source: SourcePath}, nil
		}
	}

	host := target.Hostname()
	if host == "" || net.ParseIP(host) != nil {
		return Info{}, nil
	}
	labels := strings.Split(host, ".")
	if len(labels) >= 3 && labels[0] != "www" && slugPattern.MatchString(strings.ToLower(labels[0])) {
		return Info{Slug: strings.ToLower(labels[0]), Source: SourceSubdomain}, nil
	}
	return Info{}, nil
}

// Apply sets the tenant header on req when a slug is known.
func (i Info) Apply(req *http.Request) {
	if i.Slug != "" {
		req.Header.Set(Header, i.Slug)
	}
}

// Middleware resolves the tenant of an incoming sandbox request from the
// X-Tenant-Slug header, falling back to defaultTenant.
func Middleware(defaultTenant string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			slug := strings.ToLower(c.Request().Header.Get(Header))
			if slug == "" {
				slug = defaultTenant
			}
			if !slugPattern.MatchString(slug) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant identifier")
			}

			c.SetRequest(c.Request().WithContext(NewContext(c.Request().Context(), slug)))
			c.Set("tenant_slug", slug)
			return next(c)
		}
	}
}

// NewContext returns ctx carrying slug.
func NewContext(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, slugKey, slug)
}

// FromContext retrieves the tenant slug stored by Middleware.
func FromContext(ctx context.Context) string {
	slug, _ := ctx.Value(slugKey).(string)
	return slug
}

// StripPrefix undoes path-based routing on the server side: a request for
// /<prefix>/api/... is rewritten to /api/... and, unless the header is
// already set, tagged with the prefix as its tenant. Register it with
// echo's Pre so routing sees the rewritten path.
func StripPrefix(knownPrefixes []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
			if len(parts) == 2 {
				for _, p := range knownPrefixes {
					if strings.EqualFold(parts[0], p) {
						req.URL.Path = "/" + parts[1]
						req.URL.RawPath = ""
						if req.Header.Get(Header) == "" {
							req.Header.Set(Header, strings.ToLower(p))
						}
						break
					}
				}
			}
			return next(c)
		}
	}
}
