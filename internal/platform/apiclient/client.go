// Package apiclient is the single HTTP path between the console and the
// backend. It carries the cookie session, the tenant header and, for cart
// calls, the cart session id, and turns failures into *Error values.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bakery/storefront/internal/platform/session"
	"github.com/bakery/storefront/internal/platform/tenant"
)

const maxBodySize = 10 << 20

// Options configures a Client.
type Options struct {
	BaseURL string
	Tenant  tenant.Info
	// Session supplies the cart session id. Requests that ask for it fail
	// when it is nil.
	Session    session.Store
	Timeout    time.Duration
	Logger     zerolog.Logger
	HTTPClient *http.Client
}

// Client issues credentialed JSON requests against the backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	tenant  tenant.Info
	session session.Store
	logger  zerolog.Logger
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	return &Client{
		base:    base,
		http:    hc,
		tenant:  opts.Tenant,
		session: opts.Session,
		logger:  opts.Logger,
	}, nil
}

// Tenant returns the tenant the client was built for.
func (c *Client) Tenant() tenant.Info { return c.tenant }

// Request describes one backend call. At most one of Body and Form is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	Form   *Multipart
	// WithSession adds the cart session header.
	WithSession bool
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

// Do sends r and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) Do(ctx context.Context, r Request, out interface{}) error {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).
			Str("method", r.Method).
			Str("path", req.URL.Path).
			Dur("latency", time.Since(start)).
			Msg("request failed")
		return &Error{Code: CodeNetwork, Method: r.Method, Path: r.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &Error{Code: CodeNetwork, Status: resp.StatusCode, Method: r.Method, Path: r.Path, Err: err}
	}

	c.logger.Debug().
		Str("method", r.Method).
		Str("path", req.URL.Path).
		Str("tenant", c.tenant.Slug).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request")

	isJSON := isJSONContent(resp.Header.Get("Content-Type"))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if !isJSON {
			return &Error{Code: CodeUnexpectedFormat, Status: resp.StatusCode, Method: r.Method, Path: r.Path}
		}
		return &Error{Code: CodeHTTP, Status: resp.StatusCode, Method: r.Method, Path: r.Path, Detail: parseDetail(body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if !isJSON {
		return &Error{Code: CodeUnexpectedFormat, Status: resp.StatusCode, Method: r.Method, Path: r.Path}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Code: CodeDecode, Status: resp.StatusCode, Method: r.Method, Path: r.Path, Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	u := *c.base
	u.Path = c.base.Path + c.tenant.BasePath + r.Path
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.Form != nil:
		buf, ct, err := r.Form.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", r.Method, r.Path, err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", r.Method, r.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.tenant.Apply(req)

	if r.WithSession {
		if c.session == nil {
			return nil, errors.New("cart session store is not configured")
		}
		id, err := c.session.ID()
		if err != nil {
			return nil, fmt.Errorf("cart session: %w", err)
		}
		req.Header.Set(session.Header, id)
	}
	return req, nil
}

func isJSONContent(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
