package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

var kindPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)

// LocalStore keeps uploads on local disk under dir and serves them from baseURL.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewLocalStore constructs a LocalStore.
func NewLocalStore(dir, baseURL string, maxBytes int64) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}
}

// Dir returns the storage root.
func (s *LocalStore) Dir() string { return s.dir }

// Upload writes f under kind with a random name and returns its URL.
func (s *LocalStore) Upload(ctx context.Context, kind string, f File) (string, error) {
	if !kindPattern.MatchString(kind) {
		return "", shared.NewValidationError("kind", "tidak valid")
	}
	if f.Reader == nil {
		return "", shared.NewValidationError("file", "wajib diisi")
	}
	if s.maxBytes > 0 && f.Size > s.maxBytes {
		return "", shared.NewValidationError("file", fmt.Sprintf("maksimal %d byte", s.maxBytes))
	}
	contentType, body, err := Sniff(f.Reader)
	if err != nil {
		return "", fmt.Errorf("%w: read: %v", shared.ErrUpload, err)
	}
	ext, ok := ExtensionFor(contentType)
	if !ok {
		return "", shared.NewValidationError("file", "hanya gambar atau PDF")
	}

	dir := filepath.Join(s.dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: mkdir: %v", shared.ErrUpload, err)
	}
	name := uuid.NewString() + ext
	target := filepath.Join(dir, name)
	out, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: create: %v", shared.ErrUpload, err)
	}
	tmp := out.Name()
	limit := s.maxBytes
	if limit <= 0 {
		limit = 1 << 62
	}
	written, err := io.Copy(out, io.LimitReader(body, limit+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("%w: write: %v", shared.ErrUpload, err)
	}
	if written > limit {
		_ = os.Remove(tmp)
		return "", shared.NewValidationError("file", fmt.Sprintf("maksimal %d byte", s.maxBytes))
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("%w: rename: %v", shared.ErrUpload, err)
	}
	return s.baseURL + "/" + path.Join(kind, name), nil
}

// Remove deletes the file behind url. Unknown or foreign URLs are ignored.
func (s *LocalStore) Remove(ctx context.Context, url string) error {
	rel, ok := s.relative(url)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// URLs lists stored files last modified before cutoff.
func (s *LocalStore) URLs(cutoff time.Time) ([]string, error) {
	var urls []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		urls = append(urls, s.baseURL+"/"+filepath.ToSlash(rel))
		return nil
	})
	return urls, err
}

func (s *LocalStore) relative(url string) (string, bool) {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return "", false
	}
	rel := strings.TrimPrefix(url, s.baseURL+"/")
	clean := path.Clean(rel)
	if clean != rel || strings.HasPrefix(clean, "../") || clean == ".." || strings.Count(clean, "/") != 1 {
		return "", false
	}
	return clean, true
}

var _ Uploader = (*LocalStore)(nil)
