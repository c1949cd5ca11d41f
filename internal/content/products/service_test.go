package products

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/content/contenttest"
	"github.com/kreasi-nusantara/compro/internal/rbac"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

type memoryProductRepo struct {
	products map[int64]Product
	logs     []shared.ActivityLog
	nextID   int64
	failLog  bool
}

type memoryProductTx struct {
	repo     *memoryProductRepo
	products map[int64]Product
	logs     []shared.ActivityLog
}

func newMemoryProductRepo() *memoryProductRepo {
	return &memoryProductRepo{products: make(map[int64]Product)}
}

func (r *memoryProductRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryProductTx{repo: r, products: make(map[int64]Product, len(r.products))}
	for id, p := range r.products {
		tx.products[id] = p
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.products = tx.products
	r.logs = append(r.logs, tx.logs...)
	return nil
}

func (r *memoryProductRepo) ListProducts(ctx context.Context, f content.ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryProductRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.NotFound("produk")
	}
	return p, nil
}

func (tx *memoryProductTx) GetProductForUpdate(ctx context.Context, id int64) (Product, error) {
	p, ok := tx.products[id]
	if !ok {
		return Product{}, shared.NotFound("produk")
	}
	return p, nil
}

func (tx *memoryProductTx) InsertProduct(ctx context.Context, in ProductInput) (Product, error) {
	tx.repo.nextID++
	p := Product{ID: tx.repo.nextID, Name: in.Name, Description: in.Description, ImageURL: in.ImageURL, LinkURL: in.LinkURL, CreatedAt: time.Now()}
	tx.products[p.ID] = p
	return p, nil
}

func (tx *memoryProductTx) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	p := tx.products[id]
	p.Name, p.Description, p.ImageURL, p.LinkURL = in.Name, in.Description, in.ImageURL, in.LinkURL
	tx.products[id] = p
	return p, nil
}

func (tx *memoryProductTx) DeleteProduct(ctx context.Context, id int64) error {
	delete(tx.products, id)
	return nil
}

func (tx *memoryProductTx) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
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

func TestCreateProductLogsOnce(t *testing.T) {
	repo := newMemoryProductRepo()
	media, _, _ := contenttest.Media()
	svc := NewService(repo, media)

	p, err := svc.CreateProduct(context.Background(), ProductInput{Name: "ERP Suite", LinkURL: "https://erp.example.com"}, nil, actor())
	require.NoError(t, err)
	assert.Equal(t, "ERP Suite", p.Name)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, "Tambah Produk", repo.logs[0].Action)
	assert.Equal(t, int64(1), *repo.logs[0].UserID)
}

func TestCreateProductEmptyNameLeavesNoTrace(t *testing.T) {
	repo := newMemoryProductRepo()
	media, uploader, _ := contenttest.Media()
	svc := NewService(repo, media)

	_, err := svc.CreateProduct(context.Background(), ProductInput{Name: ""}, contenttest.File("a.png"), actor())
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Empty(t, repo.products)
	assert.Empty(t, repo.logs)
	assert.Zero(t, uploader.Calls)
}

func TestCreateProductAtomicWithLog(t *testing.T) {
	repo := newMemoryProductRepo()
	repo.failLog = true
	media, _, _ := contenttest.Media()

	_, err := NewService(repo, media).CreateProduct(context.Background(), ProductInput{Name: "ERP"}, nil, actor())
	require.Error(t, err)
	assert.Empty(t, repo.products)
	assert.Empty(t, repo.logs)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	repo := newMemoryProductRepo()
	media, _, purger := contenttest.Media()
	svc := NewService(repo, media)
	p, err := svc.CreateProduct(context.Background(), ProductInput{Name: "ERP"}, contenttest.File("a.png"), actor())
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(context.Background(), p.ID, ProductInput{Name: "ERP Cloud"}, nil, actor())
	require.NoError(t, err)
	assert.Equal(t, "ERP Cloud", updated.Name)
	assert.Equal(t, p.ImageURL, updated.ImageURL)

	require.NoError(t, svc.DeleteProduct(context.Background(), p.ID, actor()))
	assert.Empty(t, repo.products)
	assert.Equal(t, []string{p.ImageURL}, purger.Released())

	actions := make([]string, 0, len(repo.logs))
	for _, l := range repo.logs {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{"Tambah Produk", "Ubah Produk", "Hapus Produk"}, actions)

	_, err = svc.UpdateProduct(context.Background(), p.ID, ProductInput{Name: "X"}, nil, actor())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestHandlerRejectsUnknownFields(t *testing.T) {
	repo := newMemoryProductRepo()
	media, _, _ := contenttest.Media()
	// The route guard is exercised in rbac; mount the write handler bare.
	router := chi.NewRouter()
	h := NewHandler(nil, NewService(repo, media), nil, rbac.Middleware{}, 1<<20)
	router.Post("/", h.create)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ERP","price":10}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.products)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ERP"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"ERP"`)
}
