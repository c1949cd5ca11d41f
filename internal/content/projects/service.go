package projects

import (
	"context"
	"fmt"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/upload"
)

const mediaKind = "projects"

// Service handles project business logic.
type Service struct {
	repo  Repository
	media *content.Media
}

// NewService builds Service instance.
func NewService(repo Repository, media *content.Media) *Service {
	return &Service{repo: repo, media: media}
}

// ListProjects returns a filtered page.
func (s *Service) ListProjects(ctx context.Context, f Filters) (content.ListResult[Project], error) {
	items, total, err := s.repo.ListProjects(ctx, f)
	if err != nil {
		return content.ListResult[Project]{}, err
	}
	return content.NewListResult(items, f.ListFilters, total), nil
}

// GetProject returns a project by id.
func (s *Service) GetProject(ctx context.Context, id int64) (Project, error) {
	return s.repo.GetProject(ctx, id)
}

// CreateProject stores the image, then inserts the project.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput, image *upload.File, actorID *int64) (Project, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Project{}, err
	}
	att, err := s.media.Attach(ctx, mediaKind, image, in.ImageURL)
	if err != nil {
		return Project{}, err
	}
	in.ImageURL = att.URL

	var created Project
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}
		p, err := tx.InsertProject(ctx, in)
		if err != nil {
			return err
		}
		created = p
		return shared.LogActivity(ctx, tx, actorID, "Tambah Proyek", fmt.Sprintf("Menambahkan proyek %s", p.Title))
	})
	if err := s.media.Settle(ctx, err, []content.Attachment{att}); err != nil {
		return Project{}, err
	}
	return created, nil
}

// UpdateProject overwrites a project. An empty image URL without a file keeps
// the current image.
func (s *Service) UpdateProject(ctx context.Context, id int64, in ProjectInput, image *upload.File, actorID *int64) (Project, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Project{}, err
	}
	att, err := s.media.Attach(ctx, mediaKind, image, in.ImageURL)
	if err != nil {
		return Project{}, err
	}
	in.ImageURL = att.URL

	var updated, previous Project
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetProjectForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous = current
		if in.ImageURL == "" {
			in.ImageURL = current.ImageURL
		}
		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}
		p, err := tx.UpdateProject(ctx, id, in)
		if err != nil {
			return err
		}
		updated = p
		return shared.LogActivity(ctx, tx, actorID, "Ubah Proyek", fmt.Sprintf("Mengubah proyek %s", p.Title))
	})
	att.URL = in.ImageURL
	if err := s.media.Settle(ctx, err, []content.Attachment{att}, previous.ImageURL); err != nil {
		return Project{}, err
	}
	return updated, nil
}

// DeleteProject removes a project and releases its image.
func (s *Service) DeleteProject(ctx context.Context, id int64, actorID *int64) error {
	var removed Project
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetProjectForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteProject(ctx, id); err != nil {
			return err
		}
		removed = current
		return shared.LogActivity(ctx, tx, actorID, "Hapus Proyek", fmt.Sprintf("Menghapus proyek %s", current.Title))
	})
	if err != nil {
		return err
	}
	s.media.Release(ctx, removed.ImageURL)
	return nil
}

func checkReferences(ctx context.Context, tx TxRepository, in ProjectInput) error {
	verr := &shared.ValidationError{}
	if id := in.clientID(); id != nil {
		ok, err := tx.ClientExists(ctx, *id)
		if err != nil {
			return err
		}
		if !ok {
			verr.Add("client_id", "klien tidak ditemukan")
		}
	}
	if id := in.categoryID(); id != nil {
		ok, err := tx.CategoryExists(ctx, *id)
		if err != nil {
			return err
		}
		if !ok {
			verr.Add("category_id", "kategori tidak ditemukan")
		}
	}
	return verr.OrNil()
}

func normalize(in ProjectInput) ProjectInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}
