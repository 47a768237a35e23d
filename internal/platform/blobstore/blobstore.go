// Package blobstore keeps uploaded images for the sandbox and serves them
// back under /uploads.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bakery/storefront/internal/platform/tenant"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("only image uploads are accepted")
	ErrMissingFileName    = errors.New("file name is required")
)

// MaxFileSize is the largest accepted image (10 MB).
const MaxFileSize = 10 * 1024 * 1024

// PublicPrefix is where stored images are served.
const PublicPrefix = "/uploads/"

// Kind separates product images from storefront banners.
type Kind string

const (
	KindProduct Kind = "product"
	KindHero    Kind = "hero"
)

// BlobMetadata describes a stored image. ContentType is sniffed from the
// bytes, never taken from the request.
type BlobMetadata struct {
	ID          string    `json:"id"`
	Tenant      string    `json:"tenant"`
	Kind        Kind      `json:"kind"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// URL is the public path of the blob.
func (m BlobMetadata) URL() string {
	return PublicPrefix + m.ID
}

type BlobStore interface {
	Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *BlobMetadata, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, tenantSlug string, kind Kind) ([]*BlobMetadata, error)
}

type storedBlob struct {
	metadata BlobMetadata
	content  []byte
}

// InMemoryBlobStore is a thread-safe BlobStore. Re-uploading identical bytes
// to the same tenant and kind returns the existing blob.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{blobs: make(map[string]*storedBlob)}
}

func (s *InMemoryBlobStore) Upload(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	if meta.FileName == "" {
		return nil, ErrMissingFileName
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidContentType, mt.String())
	}

	h := sha256.Sum256(data)
	meta.Hash = fmt.Sprintf("%x", h)
	meta.ContentType = mt.String()
	meta.Size = int64(len(data))

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.blobs {
		if b.metadata.Hash == meta.Hash && b.metadata.Tenant == meta.Tenant && b.metadata.Kind == meta.Kind {
			out := b.metadata
			return &out, nil
		}
	}

	meta.ID = uuid.NewString() + mt.Extension()
	meta.CreatedAt = time.Now().UTC()
	s.blobs[meta.ID] = &storedBlob{metadata: meta, content: data}

	out := meta
	return &out, nil
}

func (s *InMemoryBlobStore) Download(_ context.Context, id string) (io.ReadCloser, *BlobMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

func (s *InMemoryBlobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}

// List returns a tenant's blobs of kind, oldest first.
func (s *InMemoryBlobStore) List(_ context.Context, tenantSlug string, kind Kind) ([]*BlobMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*BlobMetadata
	for _, b := range s.blobs {
		if b.metadata.Tenant != tenantSlug || (kind != "" && b.metadata.Kind != kind) {
			continue
		}
		m := b.metadata
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// HTTP handler
// ---------------------------------------------------------------------------

type uploadResponse struct {
	URL string `json:"url"`
}

type BlobHandler struct {
	store BlobStore
}

func NewBlobHandler(store BlobStore) *BlobHandler {
	return &BlobHandler{store: store}
}

// RegisterRoutes mounts the upload endpoints on the /api group.
func (h *BlobHandler) RegisterRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST("/upload", h.handleUpload(KindProduct), mw...)
	g.POST("/upload/hero", h.handleUpload(KindHero), mw...)
	g.GET("/upload/hero", h.handleListHero)
}

// RegisterPublic serves stored images.
func (h *BlobHandler) RegisterPublic(e *echo.Echo) {
	e.GET(PublicPrefix+":id", h.handleDownload)
}

func (h *BlobHandler) handleUpload(kind Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		file, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "file is required")
		}

		src, err := file.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
		}
		defer src.Close()

		meta := BlobMetadata{
			Tenant:   tenant.FromContext(c.Request().Context()),
			Kind:     kind,
			FileName: file.Filename,
		}

		result, err := h.store.Upload(c.Request().Context(), meta, src)
		if err != nil {
			switch {
			case errors.Is(err, ErrFileTooLarge):
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
			case errors.Is(err, ErrMissingFileName):
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			case errors.Is(err, ErrInvalidContentType):
				return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
			default:
				return err
			}
		}

		return c.JSON(http.StatusCreated, uploadResponse{URL: result.URL()})
	}
}

func (h *BlobHandler) handleListHero(c echo.Context) error {
	items, err := h.store.List(c.Request().Context(), tenant.FromContext(c.Request().Context()), KindHero)
	if err != nil {
		return err
	}
	urls := make([]string, 0, len(items))
	for _, m := range items {
		urls = append(urls, m.URL())
	}
	return c.JSON(http.StatusOK, urls)
}

func (h *BlobHandler) handleDownload(c echo.Context) error {
	rc, meta, err := h.store.Download(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}
	defer rc.Close()

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
