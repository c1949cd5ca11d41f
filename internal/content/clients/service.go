package clients

import (
	"context"
	"fmt"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/upload"
)

const mediaKind = "clients"

// Service handles client business logic.
type Service struct {
	repo  Repository
	media *content.Media
}

// NewService builds Service instance.
func NewService(repo Repository, media *content.Media) *Service {
	return &Service{repo: repo, media: media}
}

// ListClients returns a filtered page.
func (s *Service) ListClients(ctx context.Context, f content.ListFilters) (content.ListResult[Client], error) {
	items, total, err := s.repo.ListClients(ctx, f)
	if err != nil {
		return content.ListResult[Client]{}, err
	}
	return content.NewListResult(items, f, total), nil
}

// GetClient returns a client by id.
func (s *Service) GetClient(ctx context.Context, id int64) (Client, error) {
	return s.repo.GetClient(ctx, id)
}

// CreateClient stores the logo, then inserts the client.
func (s *Service) CreateClient(ctx context.Context, in ClientInput, logo *upload.File, actorID *int64) (Client, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Client{}, err
	}
	if err := content.RequireMedia("logo", logo, in.LogoURL); err != nil {
		return Client{}, err
	}
	att, err := s.media.Attach(ctx, mediaKind, logo, in.LogoURL)
	if err != nil {
		return Client{}, err
	}
	in.LogoURL = att.URL

	var created Client
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.InsertClient(ctx, in)
		if err != nil {
			return err
		}
		created = c
		return shared.LogActivity(ctx, tx, actorID, "Tambah Klien", fmt.Sprintf("Menambahkan klien %s", c.Name))
	})
	if err := s.media.Settle(ctx, err, []content.Attachment{att}); err != nil {
		return Client{}, err
	}
	return created, nil
}

// UpdateClient overwrites a client. An empty logo URL without a file keeps the
// current logo.
func (s *Service) UpdateClient(ctx context.Context, id int64, in ClientInput, logo *upload.File, actorID *int64) (Client, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Client{}, err
	}
	att, err := s.media.Attach(ctx, mediaKind, logo, in.LogoURL)
	if err != nil {
		return Client{}, err
	}
	in.LogoURL = att.URL

	var updated, previous Client
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetClientForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous = current
		if in.LogoURL == "" {
			in.LogoURL = current.LogoURL
		}
		c, err := tx.UpdateClient(ctx, id, in)
		if err != nil {
			return err
		}
		updated = c
		return shared.LogActivity(ctx, tx, actorID, "Ubah Klien", fmt.Sprintf("Mengubah klien %s", c.Name))
	})
	att.URL = in.LogoURL
	if err := s.media.Settle(ctx, err, []content.Attachment{att}, previous.LogoURL); err != nil {
		return Client{}, err
	}
	return updated, nil
}

// DeleteClient removes a client no project references and releases its logo.
func (s *Service) DeleteClient(ctx context.Context, id int64, actorID *int64) error {
	var removed Client
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetClientForUpdate(ctx, id)
		if err != nil {
			return err
		}
		n, err := tx.CountProjects(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return shared.Conflict("klien %s masih memiliki %d proyek", current.Name, n)
		}
		if err := tx.DeleteClient(ctx, id); err != nil {
			return err
		}
		removed = current
		return shared.LogActivity(ctx, tx, actorID, "Hapus Klien", fmt.Sprintf("Menghapus klien %s", current.Name))
	})
	if err != nil {
		return err
	}
	s.media.Release(ctx, removed.LogoURL)
	return nil
}

func normalize(in ClientInput) ClientInput {
	in.Name = strings.TrimSpace(in.Name)
	in.LogoURL = strings.TrimSpace(in.LogoURL)
	in.Website = strings.TrimSpace(in.Website)
	return in
}
