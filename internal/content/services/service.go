package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/upload"
)

const mediaKind = "services"

// Manager handles service business logic.
type Manager struct {
	repo  Repository
	media *content.Media
}

// NewManager builds Manager instance.
func NewManager(repo Repository, media *content.Media) *Manager {
	return &Manager{repo: repo, media: media}
}

// ListServices returns a filtered page.
func (m *Manager) ListServices(ctx context.Context, f content.ListFilters) (content.ListResult[Service], error) {
	items, total, err := m.repo.ListServices(ctx, f)
	if err != nil {
		return content.ListResult[Service]{}, err
	}
	return content.NewListResult(items, f, total), nil
}

// GetService returns a service with its items.
func (m *Manager) GetService(ctx context.Context, id int64) (Service, error) {
	return m.repo.GetService(ctx, id)
}

// CreateService inserts a service and its items in one transaction.
func (m *Manager) CreateService(ctx context.Context, in ServiceInput, icon *upload.File, actorID *int64) (Service, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Service{}, err
	}
	plan, err := PlanItems(nil, in.Items)
	if err != nil {
		return Service{}, err
	}
	att, err := m.media.Attach(ctx, mediaKind, icon, in.IconURL)
	if err != nil {
		return Service{}, err
	}
	in.IconURL = att.URL

	var created Service
	err = m.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		s, err := tx.InsertService(ctx, in)
		if err != nil {
			return err
		}
		items, err := tx.ApplyItems(ctx, s.ID, plan)
		if err != nil {
			return err
		}
		s.Items = items
		created = s
		return shared.LogActivity(ctx, tx, actorID, "Tambah Layanan",
			fmt.Sprintf("Menambahkan layanan %s dengan %d sub layanan", s.Title, len(items)))
	})
	if err := m.media.Settle(ctx, err, []content.Attachment{att}); err != nil {
		return Service{}, err
	}
	return created, nil
}

// UpdateService overwrites a service and reconciles its items against
// in.Items. Row changes and the service update commit or roll back together.
func (m *Manager) UpdateService(ctx context.Context, id int64, in ServiceInput, icon *upload.File, actorID *int64) (Service, error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Service{}, err
	}
	// An absent list is rejected; [] is the explicit way to clear every item.
	if in.Items == nil {
		return Service{}, shared.NewValidationError("items", "wajib diisi")
	}
	att, err := m.media.Attach(ctx, mediaKind, icon, in.IconURL)
	if err != nil {
		return Service{}, err
	}
	in.IconURL = att.URL

	var updated, previous Service
	err = m.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetServiceForUpdate(ctx, id)
		if err != nil {
			return err
		}
		previous = current
		plan, err := PlanItems(current.Items, in.Items)
		if err != nil {
			return err
		}
		if in.IconURL == "" {
			in.IconURL = current.IconURL
		}
		s, err := tx.UpdateService(ctx, id, in)
		if err != nil {
			return err
		}
		s.Items = current.Items
		if !plan.Empty() {
			if s.Items, err = tx.ApplyItems(ctx, id, plan); err != nil {
				return err
			}
		}
		updated = s
		return shared.LogActivity(ctx, tx, actorID, "Ubah Layanan",
			fmt.Sprintf("Mengubah layanan %s (sub layanan +%d, -%d, ~%d)", s.Title, len(plan.Insert), len(plan.Delete), len(plan.Update)))
	})
	att.URL = in.IconURL
	if err := m.media.Settle(ctx, err, []content.Attachment{att}, previous.IconURL); err != nil {
		return Service{}, err
	}
	return updated, nil
}

// DeleteService removes a service together with its items.
func (m *Manager) DeleteService(ctx context.Context, id int64, actorID *int64) error {
	var removed Service
	err := m.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetServiceForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteService(ctx, id); err != nil {
			return err
		}
		removed = current
		return shared.LogActivity(ctx, tx, actorID, "Hapus Layanan",
			fmt.Sprintf("Menghapus layanan %s beserta %d sub layanan", current.Title, len(current.Items)))
	})
	if err != nil {
		return err
	}
	m.media.Release(ctx, removed.IconURL)
	return nil
}

func normalize(in ServiceInput) ServiceInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.IconURL = strings.TrimSpace(in.IconURL)
	for i := range in.Items {
		in.Items[i].Name = strings.TrimSpace(in.Items[i].Name)
	}
	return in
}
