package apiclient

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotImage is returned when an upload that must be an image is not one.
var ErrNotImage = errors.New("file is not an image")

// File is one file part of a multipart form.
type File struct {
	Field string
	Name  string
	Data  []byte
}

// ContentType sniffs the file content; the file name is not trusted.
func (f File) ContentType() string {
	return mimetype.Detect(f.Data).String()
}

// IsImage reports whether the sniffed content is an image.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.ContentType(), "image/")
}

// Multipart is a form body with plain fields followed by files.
type Multipart struct {
	Fields map[string]string
	Files  []File
}

func (m *Multipart) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	for _, f := range m.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, filepath.Base(f.Name)))
		h.Set("Content-Type", f.ContentType())
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
