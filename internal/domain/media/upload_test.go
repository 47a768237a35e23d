package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bakery/storefront/internal/platform/apiclient"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestUploader_Upload(t *testing.T) {
	var gotPath, gotName string
	var gotSize int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotSize = hdr.Filename, len(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"/uploads/abc.png"}`))
	}))
	defer srv.Close()

	c, err := apiclient.New(apiclient.Options{BaseURL: srv.URL, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	u := NewUploader(c)

	url, err := u.UploadHero(context.Background(), "banner.png", pngData)
	if err != nil {
		t.Fatalf("UploadHero: %v", err)
	}
	if url != "/uploads/abc.png" || gotPath != HeroUploadPath {
		t.Errorf("unexpected url %q at path %q", url, gotPath)
	}
	if gotName != "banner.png" || gotSize != len(pngData) {
		t.Errorf("unexpected part %q (%d bytes)", gotName, gotSize)
	}
}

func TestUploader_RejectsNonImage(t *testing.T) {
	u := NewUploader(nil)
	_, err := u.Upload(context.Background(), "notes.png", []byte("just some text"))
	if !errors.Is(err, apiclient.ErrNotImage) {
		t.Errorf("expected ErrNotImage, got %v", err)
	}
}
