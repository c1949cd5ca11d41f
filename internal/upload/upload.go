// Package upload turns incoming files into durable URLs.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// File is an incoming attachment.
type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Uploader stores a file and returns its durable URL.
type Uploader interface {
	Upload(ctx context.Context, kind string, f File) (string, error)
}

// Purger removes stored files that are no longer referenced.
type Purger interface {
	Purge(ctx context.Context, urls ...string) error
}

// Allowed content types, sniffed from the payload.
var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// ErrUnsupportedType is returned for payloads outside the allow-list.
var ErrUnsupportedType = errors.New("upload: unsupported content type")

// Sniff reads the head of r and returns the detected type with a reader that
// replays the consumed bytes.
func Sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return contentType, io.MultiReader(bytes.NewReader(head), r), nil
}

// ExtensionFor returns the stored extension for an allowed content type.
func ExtensionFor(contentType string) (string, bool) {
	ext, ok := allowedTypes[contentType]
	return ext, ok
}

// FromMultipart extracts field from a parsed multipart form. It returns nil
// when the field is absent.
func FromMultipart(r *http.Request, field string) (*File, func(), error) {
	fh, err := formFile(r, field)
	if err != nil || fh == nil {
		return nil, func() {}, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, fmt.Errorf("%w: open %s: %v", shared.ErrUpload, field, err)
	}
	return &File{Name: fh.Filename, Size: fh.Size, Reader: f}, func() { _ = f.Close() }, nil
}

func formFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if files[0].Size == 0 {
		return nil, shared.NewValidationError(field, "berkas kosong")
	}
	return files[0], nil
}
