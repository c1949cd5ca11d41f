package content

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/upload"
)

func TestFiltersFromQueryDefaults(t *testing.T) {
	f := FiltersFromQuery(url.Values{})
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.PageSize())
	assert.True(t, f.Desc)
	assert.Equal(t, "created_at DESC, id DESC", f.OrderBy(SortSpec{Columns: map[string]string{"name": "name"}}))
}

func TestFiltersOrderByAllowList(t *testing.T) {
	q := url.Values{"sort": {"name"}, "dir": {"asc"}, "page": {"3"}, "limit": {"500"}}
	f := FiltersFromQuery(q)
	assert.Equal(t, "name ASC, id ASC", f.OrderBy(SortSpec{Columns: map[string]string{"name": "name"}}))
	assert.Equal(t, 100, f.PageSize())
	assert.Equal(t, 200, f.Offset())

	joined := SortSpec{Columns: map[string]string{"title": "p.title"}, Default: "p.created_at", ID: "p.id"}
	assert.Equal(t, "p.created_at ASC, p.id ASC", f.OrderBy(joined))

	f.Sort = "name; DROP TABLE users"
	assert.Equal(t, "created_at ASC, id ASC", f.OrderBy(SortSpec{Columns: map[string]string{"name": "name"}}))
}

func TestFiltersPatternEscapesWildcards(t *testing.T) {
	f := ListFilters{Search: "50%_off"}
	assert.Equal(t, `%50\%\_off%`, f.Pattern())
	assert.Empty(t, ListFilters{}.Pattern())
}

func TestNewListResultNeverNil(t *testing.T) {
	res := NewListResult[int](nil, ListFilters{Page: 1, Limit: 10}, 0)
	assert.NotNil(t, res.Data)
	assert.Equal(t, 0, res.Pagination.TotalPages)
}

type stubUploader struct {
	url string
	err error
}

func (s stubUploader) Upload(ctx context.Context, kind string, f upload.File) (string, error) {
	return s.url, s.err
}

type stubPurger struct{ urls []string }

func (p *stubPurger) Purge(ctx context.Context, urls ...string) error {
	p.urls = append(p.urls, urls...)
	return nil
}

func TestMediaAttachKeepsCurrentWithoutFile(t *testing.T) {
	m := NewMedia(stubUploader{url: "/uploads/x/new.png"}, nil, nil)
	a, err := m.Attach(context.Background(), "x", nil, "/uploads/x/old.png")
	require.NoError(t, err)
	assert.Equal(t, Attachment{URL: "/uploads/x/old.png"}, a)
}

func TestMediaAttachWrapsUploadFailure(t *testing.T) {
	m := NewMedia(stubUploader{err: errors.New("disk full")}, nil, nil)
	_, err := m.Attach(context.Background(), "x", &upload.File{}, "")
	assert.ErrorIs(t, err, shared.ErrUpload)
}

func TestMediaSettle(t *testing.T) {
	purger := &stubPurger{}
	m := NewMedia(nil, purger, nil)
	fresh := Attachment{URL: "/uploads/x/new.png", Fresh: true}

	err := m.Settle(context.Background(), errors.New("tx failed"), []Attachment{fresh}, "/uploads/x/old.png")
	require.Error(t, err)
	assert.Equal(t, []string{"/uploads/x/new.png"}, purger.urls, "failed mutation discards the fresh upload")

	purger.urls = nil
	require.NoError(t, m.Settle(context.Background(), nil, []Attachment{fresh}, "/uploads/x/old.png"))
	assert.Equal(t, []string{"/uploads/x/old.png"}, purger.urls, "committed mutation releases the replaced file")

	purger.urls = nil
	require.NoError(t, m.Settle(context.Background(), nil, []Attachment{{URL: "/uploads/x/old.png"}}, "/uploads/x/old.png"))
	assert.Empty(t, purger.urls)
}
