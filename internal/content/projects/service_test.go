package projects

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/internal/content/contenttest"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

type memoryProjectRepo struct {
	projects   map[int64]Project
	clients    map[int64]string
	categories map[int64]string
	logs       []shared.ActivityLog
	nextID     int64
	failLog    bool
}

type memoryProjectTx struct {
	repo     *memoryProjectRepo
	projects map[int64]Project
	logs     []shared.ActivityLog
}

func newMemoryProjectRepo() *memoryProjectRepo {
	return &memoryProjectRepo{
		projects:   make(map[int64]Project),
		clients:    map[int64]string{1: "Acme"},
		categories: map[int64]string{5: "Web"},
	}
}

func (r *memoryProjectRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryProjectTx{repo: r, projects: make(map[int64]Project, len(r.projects))}
	for id, p := range r.projects {
		tx.projects[id] = p
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.projects = tx.projects
	r.logs = append(r.logs, tx.logs...)
	return nil
}

func (r *memoryProjectRepo) ListProjects(ctx context.Context, f Filters) ([]Project, int, error) {
	var out []Project
	for _, p := range r.projects {
		if f.ClientID != 0 && (p.ClientID == nil || *p.ClientID != f.ClientID) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryProjectRepo) GetProject(ctx context.Context, id int64) (Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return Project{}, shared.NotFound("proyek")
	}
	return p, nil
}

func (tx *memoryProjectTx) GetProjectForUpdate(ctx context.Context, id int64) (Project, error) {
	p, ok := tx.projects[id]
	if !ok {
		return Project{}, shared.NotFound("proyek")
	}
	return p, nil
}

func (tx *memoryProjectTx) fill(p Project, in ProjectInput) Project {
	p.Title, p.Description, p.Year, p.ImageURL = in.Title, in.Description, in.Year, in.ImageURL
	p.ClientID, p.CategoryID = in.clientID(), in.categoryID()
	p.ClientName, p.CategoryName = "", ""
	if p.ClientID != nil {
		p.ClientName = tx.repo.clients[*p.ClientID]
	}
	if p.CategoryID != nil {
		p.CategoryName = tx.repo.categories[*p.CategoryID]
	}
	return p
}

func (tx *memoryProjectTx) InsertProject(ctx context.Context, in ProjectInput) (Project, error) {
	tx.repo.nextID++
	p := tx.fill(Project{ID: tx.repo.nextID, CreatedAt: time.Now()}, in)
	tx.projects[p.ID] = p
	return p, nil
}

func (tx *memoryProjectTx) UpdateProject(ctx context.Context, id int64, in ProjectInput) (Project, error) {
	p := tx.fill(tx.projects[id], in)
	tx.projects[id] = p
	return p, nil
}

func (tx *memoryProjectTx) DeleteProject(ctx context.Context, id int64) error {
	delete(tx.projects, id)
	return nil
}

func (tx *memoryProjectTx) ClientExists(ctx context.Context, id int64) (bool, error) {
	_, ok := tx.repo.clients[id]
	return ok, nil
}

func (tx *memoryProjectTx) CategoryExists(ctx context.Context, id int64) (bool, error) {
	_, ok := tx.repo.categories[id]
	return ok, nil
}

func (tx *memoryProjectTx) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	if tx.repo.failLog {
		return errors.New("activity insert failed")
	}
	tx.logs = append(tx.logs, entry)
	return nil
}

func actor() *int64 {
	id := int64(1)
	return &id
}

func ref(v int64) *shared.ID {
	id := shared.ID(v)
	return &id
}

func TestCreateProjectWithReferences(t *testing.T) {
	repo := newMemoryProjectRepo()
	media, _, _ := contenttest.Media()
	svc := NewService(repo, media)
	year := 2023

	p, err := svc.CreateProject(context.Background(), ProjectInput{Title: "Portal", Year: &year, ClientID: ref(1), CategoryID: ref(5)}, contenttest.File("p.png"), actor())
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.ClientName)
	assert.Equal(t, "Web", p.CategoryName)
	assert.Equal(t, "/uploads/projects/1-p.png", p.ImageURL)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, "Tambah Proyek", repo.logs[0].Action)
}

func TestCreateProjectUnknownReferences(t *testing.T) {
	repo := newMemoryProjectRepo()
	media, _, purger := contenttest.Media()
	svc := NewService(repo, media)

	_, err := svc.CreateProject(context.Background(), ProjectInput{Title: "Portal", ClientID: ref(9), CategoryID: ref(9)}, contenttest.File("p.png"), actor())
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "client_id")
	assert.Contains(t, verr.Fields, "category_id")
	assert.Empty(t, repo.projects)
	assert.Len(t, purger.Released(), 1, "upload made before the failed transaction is released")
}

func TestCreateProjectRejectsOutOfRangeYear(t *testing.T) {
	repo := newMemoryProjectRepo()
	media, _, _ := contenttest.Media()
	year := 1500
	_, err := NewService(repo, media).CreateProject(context.Background(), ProjectInput{Title: "Portal", Year: &year}, nil, actor())
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateProjectRollsBackWhenLogFails(t *testing.T) {
	repo := newMemoryProjectRepo()
	media, _, _ := contenttest.Media()
	svc := NewService(repo, media)
	p, err := svc.CreateProject(context.Background(), ProjectInput{Title: "Portal"}, nil, actor())
	require.NoError(t, err)

	repo.failLog = true
	_, err = svc.UpdateProject(context.Background(), p.ID, ProjectInput{Title: "Renamed"}, nil, actor())
	require.Error(t, err)
	assert.Equal(t, "Portal", repo.projects[p.ID].Title)
}

func TestDeleteProjectReleasesImage(t *testing.T) {
	repo := newMemoryProjectRepo()
	media, _, purger := contenttest.Media()
	svc := NewService(repo, media)
	p, err := svc.CreateProject(context.Background(), ProjectInput{Title: "Portal"}, contenttest.File("p.png"), actor())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProject(context.Background(), p.ID, actor()))
	assert.Empty(t, repo.projects)
	assert.Equal(t, []string{p.ImageURL}, purger.Released())
	assert.Equal(t, "Hapus Proyek", repo.logs[len(repo.logs)-1].Action)
}

func TestFiltersFromRequest(t *testing.T) {
	f, err := filtersFromRequest(httptest.NewRequest(http.MethodGet, "/?client_id=3&category_id=4&search=web", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.ClientID)
	assert.Equal(t, int64(4), f.CategoryID)
	assert.Equal(t, "web", f.Search)

	_, err = filtersFromRequest(httptest.NewRequest(http.MethodGet, "/?client_id=abc", nil))
	assert.ErrorIs(t, err, shared.ErrValidation)
}
