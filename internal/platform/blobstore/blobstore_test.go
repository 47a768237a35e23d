package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bakery/storefront/internal/platform/tenant"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func seedBlob(t *testing.T, store BlobStore, slug string, kind Kind, name string, data []byte) *BlobMetadata {
	t.Helper()
	meta := BlobMetadata{Tenant: slug, Kind: kind, FileName: name}
	result, err := store.Upload(context.Background(), meta, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("seedBlob: %v", err)
	}
	return result
}

// ---------------------------------------------------------------------------
// Store tests
// ---------------------------------------------------------------------------

func TestInMemoryBlobStore_Upload(t *testing.T) {
	store := NewInMemoryBlobStore()

	result := seedBlob(t, store, "panaderia", KindProduct, "pan.png", pngData)

	if !strings.HasSuffix(result.ID, ".png") {
		t.Errorf("expected .png id, got %s", result.ID)
	}
	if result.ContentType != "image/png" {
		t.Errorf("expected sniffed image/png, got %s", result.ContentType)
	}
	if result.Size != int64(len(pngData)) {
		t.Errorf("expected size %d, got %d", len(pngData), result.Size)
	}
	if want := fmt.Sprintf("%x", sha256.Sum256(pngData)); result.Hash != want {
		t.Errorf("expected hash %s, got %s", want, result.Hash)
	}
	if result.URL() != PublicPrefix+result.ID {
		t.Errorf("unexpected url %s", result.URL())
	}
}

func TestInMemoryBlobStore_RejectsNonImage(t *testing.T) {
	store := NewInMemoryBlobStore()
	_, err := store.Upload(context.Background(), BlobMetadata{FileName: "fake.png"}, strings.NewReader("plain text"))
	if !errors.Is(err, ErrInvalidContentType) {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
}

func TestInMemoryBlobStore_Upload_MissingFileName(t *testing.T) {
	store := NewInMemoryBlobStore()
	_, err := store.Upload(context.Background(), BlobMetadata{}, bytes.NewReader(pngData))
	if !errors.Is(err, ErrMissingFileName) {
		t.Errorf("expected ErrMissingFileName, got %v", err)
	}
}

func TestInMemoryBlobStore_Upload_FileTooLarge(t *testing.T) {
	store := NewInMemoryBlobStore()
	big := append(append([]byte{}, pngData...), bytes.Repeat([]byte{0}, MaxFileSize)...)
	_, err := store.Upload(context.Background(), BlobMetadata{FileName: "big.png"}, bytes.NewReader(big))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestInMemoryBlobStore_DeduplicatesPerTenant(t *testing.T) {
	store := NewInMemoryBlobStore()
	a := seedBlob(t, store, "panaderia", KindProduct, "a.png", pngData)
	b := seedBlob(t, store, "panaderia", KindProduct, "b.png", pngData)
	c := seedBlob(t, store, "veterinaria", KindProduct, "a.png", pngData)

	if a.ID != b.ID {
		t.Errorf("expected identical bytes to reuse %s, got %s", a.ID, b.ID)
	}
	if a.ID == c.ID {
		t.Error("expected tenants not to share blobs")
	}
}

func TestInMemoryBlobStore_DownloadAndDelete(t *testing.T) {
	store := NewInMemoryBlobStore()
	meta := seedBlob(t, store, "t", KindHero, "hero.png", pngData)

	rc, got, err := store.Download(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(data, pngData) || got.Kind != KindHero {
		t.Errorf("unexpected download %+v", got)
	}

	if err := store.Delete(context.Background(), meta.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := store.Download(context.Background(), meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
	if err := store.Delete(context.Background(), meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound on second delete, got %v", err)
	}
}

func TestInMemoryBlobStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryBlobStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := append(append([]byte{}, pngData...), byte(i))
			store.Upload(context.Background(), BlobMetadata{Tenant: "t", Kind: KindProduct, FileName: "x.png"}, bytes.NewReader(data))
		}(i)
	}
	wg.Wait()

	items, _ := store.List(context.Background(), "t", KindProduct)
	if len(items) != 20 {
		t.Errorf("expected 20 blobs, got %d", len(items))
	}
}

// ---------------------------------------------------------------------------
// Handler tests
// ---------------------------------------------------------------------------

func multipartBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write(data)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestBlobHandler_UploadAndServe(t *testing.T) {
	store := NewInMemoryBlobStore()
	h := NewBlobHandler(store)
	e := echo.New()
	e.Use(tenant.Middleware("default"))
	h.RegisterRoutes(e.Group("/api"))
	h.RegisterPublic(e)

	body, ct := multipartBody(t, "torta.png", pngData)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set(tenant.Header, "panaderia")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var out uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || !strings.HasPrefix(out.URL, PublicPrefix) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	items, _ := store.List(context.Background(), "panaderia", KindProduct)
	if len(items) != 1 {
		t.Errorf("expected the blob under tenant panaderia, got %d", len(items))
	}

	req = httptest.NewRequest(http.MethodGet, out.URL, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected png download, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestBlobHandler_RejectsNonImage(t *testing.T) {
	h := NewBlobHandler(NewInMemoryBlobStore())
	e := echo.New()
	h.RegisterRoutes(e.Group("/api"))

	body, ct := multipartBody(t, "notes.png", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/hero", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", rec.Code)
	}
}

func TestBlobHandler_DownloadNotFound(t *testing.T) {
	h := NewBlobHandler(NewInMemoryBlobStore())
	e := echo.New()
	h.RegisterPublic(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PublicPrefix+"missing.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
