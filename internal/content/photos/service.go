package photos

import (
	"context"
	"fmt"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/upload"
)

const mediaKind = "photos"

// Service handles gallery business logic.
type Service struct {
	repo  Repository
	media *content.Media
}

// NewService builds Service instance.
func NewService(repo Repository, media *content.Media) *Service {
	return &Service{repo: repo, media: media}
}

// ListPhotos returns a filtered page.
func (s *Service) ListPhotos(ctx context.Context, f content.ListFilters) (content.ListResult[Photo], error) {
	items, total, err := s.repo.ListPhotos(ctx, f)
	if err != nil {
		return content.ListResult[Photo]{}, err
	}
	return content.NewListResult(items, f, total), nil
}

// GetPhoto returns a photo by id.
func (s *Service) GetPhoto(ctx context.Context, id int64) (Photo, error) {
	return s.repo.GetPhoto(ctx, id)
}

// CreatePhoto stores the image, then inserts the photo.
func (s *Service) CreatePhoto(ctx context.Context, in PhotoInput, image *upload.File, actorID *int64) (Photo, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Photo{}, err
	}
	if err := content.RequireMedia("image", image, in.ImageURL); err != nil {
		return Photo{}, err
	}
	att, err := s.media.Attach(ctx, mediaKind, image, in.ImageURL)
	if err != nil {
		return Photo{}, err
	}
	in.ImageURL = att.URL

	var created Photo
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.InsertPhoto(ctx, in)
		if err != nil {
			return err
		}
		created = p
		return shared.LogActivity(ctx, tx, actorID, "Tambah Foto", fmt.Sprintf("Menambahkan foto %s", label(p)))
	})
	if err := s.media.Settle(ctx, err, []content.Attachment{att}); err != nil {
		return Photo{}, err
	}
	return created, nil
}

// UpdatePhoto overwrites a photo. An empty image URL without a file keeps the
// current image.
func (s *Service) UpdatePhoto(ctx context.Context, id int64, in PhotoInput, image *upload.File, actorID *int64) (Photo, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Photo{}, err
	}
	att, err := s.media.Attach(ctx, mediaKind, image, in.ImageURL)
	if err != nil {
		return Photo{}, err
	}
	in.ImageURL = att.URL

	var updated, previous Photo
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetPhotoForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous = current
		if in.ImageURL == "" {
			in.ImageURL = current.ImageURL
		}
		p, err := tx.UpdatePhoto(ctx, id, in)
		if err != nil {
			return err
		}
		updated = p
		return shared.LogActivity(ctx, tx, actorID, "Ubah Foto", fmt.Sprintf("Mengubah foto %s", label(p)))
	})
	att.URL = in.ImageURL
	if err := s.media.Settle(ctx, err, []content.Attachment{att}, previous.ImageURL); err != nil {
		return Photo{}, err
	}
	return updated, nil
}

// DeletePhoto removes a photo and releases its image.
func (s *Service) DeletePhoto(ctx context.Context, id int64, actorID *int64) error {
	var removed Photo
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetPhotoForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeletePhoto(ctx, id); err != nil {
			return err
		}
		removed = current
		return shared.LogActivity(ctx, tx, actorID, "Hapus Foto", fmt.Sprintf("Menghapus foto %s", label(current)))
	})
	if err != nil {
		return err
	}
	s.media.Release(ctx, removed.ImageURL)
	return nil
}

// label names a photo in log details; untitled photos fall back to the id.
func label(p Photo) string {
	if p.Title != "" {
		return p.Title
	}
	return fmt.Sprintf("#%d", p.ID)
}

func normalize(in PhotoInput) PhotoInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Caption = strings.TrimSpace(in.Caption)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}
