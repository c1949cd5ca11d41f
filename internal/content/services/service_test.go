package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/content/contenttest"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

type memoryServiceRepo struct {
	services   map[int64]Service
	logs       []shared.ActivityLog
	nextID     int64
	nextItemID int64
	failLog    bool
	failInsert string
}

type memoryServiceTx struct {
	repo     *memoryServiceRepo
	services map[int64]Service
	logs     []shared.ActivityLog
}

func newMemoryServiceRepo() *memoryServiceRepo {
	return &memoryServiceRepo{services: make(map[int64]Service)}
}

func cloneService(s Service) Service {
	s.Items = append([]Item{}, s.Items...)
	return s
}

func (r *memoryServiceRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryServiceTx{repo: r, services: make(map[int64]Service, len(r.services))}
	for id, s := range r.services {
		tx.services[id] = cloneService(s)
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.services = tx.services
	r.logs = append(r.logs, tx.logs...)
	return nil
}

func (r *memoryServiceRepo) ListServices(ctx context.Context, f content.ListFilters) ([]Service, int, error) {
	var out []Service
	for _, s := range r.services {
		out = append(out, cloneService(s))
	}
	return out, len(out), nil
}

func (r *memoryServiceRepo) GetService(ctx context.Context, id int64) (Service, error) {
	s, ok := r.services[id]
	if !ok {
		return Service{}, shared.NotFound("layanan")
	}
	return cloneService(s), nil
}

func (tx *memoryServiceTx) GetServiceForUpdate(ctx context.Context, id int64) (Service, error) {
	s, ok := tx.services[id]
	if !ok {
		return Service{}, shared.NotFound("layanan")
	}
	return cloneService(s), nil
}

func (tx *memoryServiceTx) InsertService(ctx context.Context, in ServiceInput) (Service, error) {
	tx.repo.nextID++
	s := Service{ID: tx.repo.nextID, Title: in.Title, Description: in.Description, IconURL: in.IconURL, Items: []Item{}, CreatedAt: time.Now()}
	tx.services[s.ID] = s
	return s, nil
}

func (tx *memoryServiceTx) UpdateService(ctx context.Context, id int64, in ServiceInput) (Service, error) {
	s := tx.services[id]
	s.Title, s.Description, s.IconURL = in.Title, in.Description, in.IconURL
	tx.services[id] = s
	return cloneService(s), nil
}

func (tx *memoryServiceTx) DeleteService(ctx context.Context, id int64) error {
	delete(tx.services, id)
	return nil
}

func (tx *memoryServiceTx) ApplyItems(ctx context.Context, serviceID int64, plan ItemPlan) ([]Item, error) {
	s := tx.services[serviceID]
	drop := make(map[int64]bool)
	for _, id := range plan.Delete {
		drop[id] = true
	}
	var items []Item
	for _, it := range s.Items {
		if !drop[it.ID] {
			items = append(items, it)
		}
	}
	for _, up := range plan.Update {
		for i := range items {
			if items[i].ID == up.ID {
				items[i] = up
			}
		}
	}
	for _, in := range plan.Insert {
		if in.Name == tx.repo.failInsert {
			return nil, errors.New("insert service item failed")
		}
		tx.repo.nextItemID++
		in.ID = tx.repo.nextItemID
		items = append(items, in)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
	s.Items = items
	tx.services[serviceID] = s
	return cloneService(s).Items, nil
}

func (tx *memoryServiceTx) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
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

func names(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestCreateServiceWithItems(t *testing.T) {
	repo := newMemoryServiceRepo()
	media, _, _ := contenttest.Media()
	m := NewManager(repo, media)

	s, err := m.CreateService(context.Background(), ServiceInput{
		Title: "Konsultasi IT",
		Items: []ItemInput{{Name: "Audit"}, {Name: "Roadmap"}},
	}, contenttest.File("icon.png"), actor())
	require.NoError(t, err)
	assert.Equal(t, []string{"Audit", "Roadmap"}, names(s.Items))
	assert.Equal(t, "/uploads/services/1-icon.png", s.IconURL)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, "Tambah Layanan", repo.logs[0].Action)
}

func TestCreateServiceRejectsItemIDs(t *testing.T) {
	repo := newMemoryServiceRepo()
	media, uploader, _ := contenttest.Media()
	_, err := NewManager(repo, media).CreateService(context.Background(), ServiceInput{
		Title: "Konsultasi IT",
		Items: []ItemInput{{ID: itemID(4), Name: "Audit"}},
	}, contenttest.File("icon.png"), actor())
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Zero(t, uploader.Calls)
	assert.Empty(t, repo.services)
}

func TestCreateServiceValidatesItems(t *testing.T) {
	repo := newMemoryServiceRepo()
	media, _, _ := contenttest.Media()
	_, err := NewManager(repo, media).CreateService(context.Background(), ServiceInput{
		Title: "Konsultasi IT",
		Items: []ItemInput{{Name: "  "}},
	}, nil, actor())
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, repo.services)
}

func TestUpdateServiceReconcilesItems(t *testing.T) {
	repo := newMemoryServiceRepo()
	media, _, _ := contenttest.Media()
	m := NewManager(repo, media)
	s, err := m.CreateService(context.Background(), ServiceInput{
		Title: "Konsultasi IT",
		Items: []ItemInput{{Name: "Audit"}, {Name: "Roadmap"}, {Name: "Pelatihan"}},
	}, nil, actor())
	require.NoError(t, err)

	keep := shared.ID(s.Items[0].ID)
	updated, err := m.UpdateService(context.Background(), s.ID, ServiceInput{
		Title: "Konsultasi TI",
		Items: []ItemInput{{ID: &keep, Name: "Audit"}, {Name: "Implementasi"}},
	}, nil, actor())
	require.NoError(t, err)
	assert.Equal(t, "Konsultasi TI", updated.Title)
	assert.Equal(t, []string{"Audit", "Implementasi"}, names(updated.Items))
	assert.Equal(t, s.Items[0].ID, updated.Items[0].ID, "kept row keeps its identity")
	assert.Equal(t, []string{"Audit", "Implementasi"}, names(repo.services[s.ID].Items))
	assert.Equal(t, "Ubah Layanan", repo.logs[len(repo.logs)-1].Action)
	assert.Contains(t, repo.logs[len(repo.logs)-1].Details, "+1, -2")
}

func TestUpdateServiceItemFailureRollsBackEverything(t *testing.T) {
	repo := newMemoryServiceRepo()
	media, _, _ := contenttest.Media()
	m := NewManager(repo, media)
	s, err := m.CreateService(context.Background(), ServiceInput{
		Title: "Konsultasi IT",
		Items: []ItemInput{{Name: "Audit"}, {Name: "Roadmap"}},
	}, nil, actor())
	require.NoError(t, err)
	logsBefore := len(repo.logs)

	repo.failInsert = "Rusak"
	_, err = m.UpdateService(context.Background(), s.ID, ServiceInput{
		Title: "Judul Baru",
		Items: []ItemInput{{Name: "Baru"}, {Name: "Rusak"}},
	}, nil, actor())
	require.Error(t, err)

	stored := repo.services[s.ID]
	assert.Equal(t, "Konsultasi IT", stored.Title)
	assert.Equal(t, []string{"Audit", "Roadmap"}, names(stored.Items))
	assert.Len(t, repo.logs, logsBefore)
}

func TestDeleteServiceCascadesItems(t *testing.T) {
	repo := newMemoryServiceRepo()
	media, _, purger := contenttest.Media()
	m := NewManager(repo, media)
	s, err := m.CreateService(context.Background(), ServiceInput{
		Title: "Konsultasi IT",
		Items: []ItemInput{{Name: "Audit"}},
	}, contenttest.File("icon.png"), actor())
	require.NoError(t, err)

	require.NoError(t, m.DeleteService(context.Background(), s.ID, actor()))
	assert.Empty(t, repo.services)
	assert.Equal(t, []string{s.IconURL}, purger.Released())
	assert.Contains(t, repo.logs[len(repo.logs)-1].Details, "1 sub layanan")

	assert.ErrorIs(t, m.DeleteService(context.Background(), s.ID, actor()), shared.ErrNotFound)
}

func TestUpdateServiceRequiresItemList(t *testing.T) {
	repo := newMemoryServiceRepo()
	media, uploader, _ := contenttest.Media()
	m := NewManager(repo, media)
	s, err := m.CreateService(context.Background(), ServiceInput{
		Title: "Konsultasi IT",
		Items: []ItemInput{{Name: "Audit"}, {Name: "Roadmap"}},
	}, nil, actor())
	require.NoError(t, err)
	logsBefore := len(repo.logs)

	_, err = m.UpdateService(context.Background(), s.ID, ServiceInput{Title: "Konsultasi TI"}, contenttest.File("icon.png"), actor())
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "wajib diisi", verr.Fields["items"])
	assert.Zero(t, uploader.Calls)

	stored := repo.services[s.ID]
	assert.Equal(t, "Konsultasi IT", stored.Title)
	assert.Equal(t, []string{"Audit", "Roadmap"}, names(stored.Items))
	assert.Len(t, repo.logs, logsBefore)
}

func TestUpdateServiceEmptyListClearsItems(t *testing.T) {
	repo := newMemoryServiceRepo()
	media, _, _ := contenttest.Media()
	m := NewManager(repo, media)
	s, err := m.CreateService(context.Background(), ServiceInput{
		Title: "Konsultasi IT",
		Items: []ItemInput{{Name: "Audit"}, {Name: "Roadmap"}},
	}, nil, actor())
	require.NoError(t, err)

	updated, err := m.UpdateService(context.Background(), s.ID, ServiceInput{Title: "Konsultasi IT", Items: []ItemInput{}}, nil, actor())
	require.NoError(t, err)
	assert.Empty(t, updated.Items)
	assert.Empty(t, repo.services[s.ID].Items)
	assert.Contains(t, repo.logs[len(repo.logs)-1].Details, "+0, -2")
}

func TestUpdateServiceUnchangedItemsKeepRows(t *testing.T) {
	repo := newMemoryServiceRepo()
	media, _, _ := contenttest.Media()
	m := NewManager(repo, media)
	s, err := m.CreateService(context.Background(), ServiceInput{
		Title: "Konsultasi IT",
		Items: []ItemInput{{Name: "Audit"}, {Name: "Roadmap"}},
	}, nil, actor())
	require.NoError(t, err)

	first, second := shared.ID(s.Items[0].ID), shared.ID(s.Items[1].ID)
	updated, err := m.UpdateService(context.Background(), s.ID, ServiceInput{
		Title: "Konsultasi TI",
		Items: []ItemInput{{ID: &first, Name: "Audit"}, {ID: &second, Name: "Roadmap"}},
	}, nil, actor())
	require.NoError(t, err)
	assert.Equal(t, "Konsultasi TI", updated.Title)
	assert.Equal(t, s.Items, updated.Items)
	assert.Contains(t, repo.logs[len(repo.logs)-1].Details, "+0, -0, ~0")
}
