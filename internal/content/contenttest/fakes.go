// Package contenttest provides upload fakes for content service tests.
package contenttest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/upload"
)

// Uploader records uploads and hands out sequential URLs.
type Uploader struct {
	mu    sync.Mutex
	Calls int
	Fail  bool
}

// Upload implements upload.Uploader.
func (u *Uploader) Upload(ctx context.Context, kind string, f upload.File) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Fail {
		return "", errors.New("storage unavailable")
	}
	u.Calls++
	return fmt.Sprintf("/uploads/%s/%d-%s", kind, u.Calls, f.Name), nil
}

// Purger records released URLs.
type Purger struct {
	mu   sync.Mutex
	URLs []string
}

// Purge implements upload.Purger.
func (p *Purger) Purge(ctx context.Context, urls ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.URLs = append(p.URLs, urls...)
	return nil
}

// Released returns a copy of the released URLs.
func (p *Purger) Released() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.URLs...)
}

// Media returns Media wired to fresh fakes.
func Media() (*content.Media, *Uploader, *Purger) {
	u, p := &Uploader{}, &Purger{}
	return content.NewMedia(u, p, nil), u, p
}

// File builds an in-memory upload.
func File(name string) *upload.File {
	body := "fake-" + name
	return &upload.File{Name: name, Size: int64(len(body)), Reader: strings.NewReader(body)}
}
