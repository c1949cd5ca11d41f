package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Service handles category business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListCategories returns a filtered page.
func (s *Service) ListCategories(ctx context.Context, f content.ListFilters) (content.ListResult[Category], error) {
	items, total, err := s.repo.ListCategories(ctx, f)
	if err != nil {
		return content.ListResult[Category]{}, err
	}
	return content.NewListResult(items, f, total), nil
}

// GetCategory returns a category by id.
func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// CreateCategory inserts a category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput, actorID *int64) (Category, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Category{}, err
	}
	var created Category
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.InsertCategory(ctx, in)
		if err != nil {
			return err
		}
		created = c
		return shared.LogActivity(ctx, tx, actorID, "Tambah Kategori", fmt.Sprintf("Menambahkan kategori %s", c.Name))
	})
	if err != nil {
		return Category{}, err
	}
	return created, nil
}

// UpdateCategory overwrites a category.
func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryInput, actorID *int64) (Category, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Category{}, err
	}
	var updated Category
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetCategoryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		c, err := tx.UpdateCategory(ctx, id, in)
		if err != nil {
			return err
		}
		updated = c
		return shared.LogActivity(ctx, tx, actorID, "Ubah Kategori", fmt.Sprintf("Mengubah kategori %s menjadi %s", current.Name, c.Name))
	})
	if err != nil {
		return Category{}, err
	}
	return updated, nil
}

// DeleteCategory removes a category no project is filed under.
func (s *Service) DeleteCategory(ctx context.Context, id int64, actorID *int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetCategoryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		n, err := tx.CountProjects(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return shared.Conflict("kategori %s masih digunakan oleh %d proyek", current.Name, n)
		}
		if err := tx.DeleteCategory(ctx, id); err != nil {
			return err
		}
		return shared.LogActivity(ctx, tx, actorID, "Hapus Kategori", fmt.Sprintf("Menghapus kategori %s", current.Name))
	})
}

func normalize(in CategoryInput) CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}
