// Package media uploads product and hero images.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bakery/storefront/internal/platform/apiclient"
)

const (
	UploadPath     = "/api/upload"
	HeroUploadPath = "/api/upload/hero"
	fileField      = "file"
)

var ErrNoURL = errors.New("upload response carried no url")

// Uploader posts images and returns the URL the backend stored them under.
type Uploader struct {
	client *apiclient.Client
}

func NewUploader(client *apiclient.Client) *Uploader {
	return &Uploader{client: client}
}

// Upload stores a product image.
func (u *Uploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	return u.send(ctx, UploadPath, name, data)
}

// UploadHero stores a storefront banner image.
func (u *Uploader) UploadHero(ctx context.Context, name string, data []byte) (string, error) {
	return u.send(ctx, HeroUploadPath, name, data)
}

// UploadFile reads path and uploads it to the product or hero endpoint.
func (u *Uploader) UploadFile(ctx context.Context, path string, hero bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if hero {
		return u.UploadHero(ctx, filepath.Base(path), data)
	}
	return u.Upload(ctx, filepath.Base(path), data)
}

func (u *Uploader) send(ctx context.Context, path, name string, data []byte) (string, error) {
	f := apiclient.File{Field: fileField, Name: name, Data: data}
	if !f.IsImage() {
		return "", fmt.Errorf("%s (%s): %w", name, f.ContentType(), apiclient.ErrNotImage)
	}

	var out struct {
		URL string `json:"url"`
	}
	req := apiclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Form:   &apiclient.Multipart{Files: []apiclient.File{f}},
	}
	if err := u.client.Do(ctx, req, &out); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if out.URL == "" {
		return "", ErrNoURL
	}
	return out.URL, nil
}
