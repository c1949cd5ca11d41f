package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/upload"
)

const mediaKind = "products"

// Service handles product business logic.
type Service struct {
	repo  Repository
	media *content.Media
}

// NewService builds Service instance.
func NewService(repo Repository, media *content.Media) *Service {
	return &Service{repo: repo, media: media}
}

// ListProducts returns a filtered page.
func (s *Service) ListProducts(ctx context.Context, f content.ListFilters) (content.ListResult[Product], error) {
	items, total, err := s.repo.ListProducts(ctx, f)
	if err != nil {
		return content.ListResult[Product]{}, err
	}
	return content.NewListResult(items, f, total), nil
}

// GetProduct returns a product by id.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// CreateProduct stores the image, then inserts the product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput, image *upload.File, actorID *int64) (Product, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Product{}, err
	}
	att, err := s.media.Attach(ctx, mediaKind, image, in.ImageURL)
	if err != nil {
		return Product{}, err
	}
	in.ImageURL = att.URL

	var created Product
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.InsertProduct(ctx, in)
		if err != nil {
			return err
		}
		created = p
		return shared.LogActivity(ctx, tx, actorID, "Tambah Produk", fmt.Sprintf("Menambahkan produk %s", p.Name))
	})
	if err := s.media.Settle(ctx, err, []content.Attachment{att}); err != nil {
		return Product{}, err
	}
	return created, nil
}

// UpdateProduct overwrites a product. An empty image URL without a file keeps
// the current image.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput, image *upload.File, actorID *int64) (Product, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Product{}, err
	}
	att, err := s.media.Attach(ctx, mediaKind, image, in.ImageURL)
	if err != nil {
		return Product{}, err
	}
	in.ImageURL = att.URL

	var updated, previous Product
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous = current
		if in.ImageURL == "" {
			in.ImageURL = current.ImageURL
		}
		p, err := tx.UpdateProduct(ctx, id, in)
		if err != nil {
			return err
		}
		updated = p
		return shared.LogActivity(ctx, tx, actorID, "Ubah Produk", fmt.Sprintf("Mengubah produk %s", p.Name))
	})
	att.URL = in.ImageURL
	if err := s.media.Settle(ctx, err, []content.Attachment{att}, previous.ImageURL); err != nil {
		return Product{}, err
	}
	return updated, nil
}

// DeleteProduct removes a product and releases its image.
func (s *Service) DeleteProduct(ctx context.Context, id int64, actorID *int64) error {
	var removed Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteProduct(ctx, id); err != nil {
			return err
		}
		removed = current
		return shared.LogActivity(ctx, tx, actorID, "Hapus Produk", fmt.Sprintf("Menghapus produk %s", current.Name))
	})
	if err != nil {
		return err
	}
	s.media.Release(ctx, removed.ImageURL)
	return nil
}

func normalize(in ProductInput) ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.LinkURL = strings.TrimSpace(in.LinkURL)
	return in
}
