package company

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kreasi-nusantara/compro/internal/content"
	"github.com/kreasi-nusantara/compro/internal/shared"
	"github.com/kreasi-nusantara/compro/internal/upload"
)

const mediaKind = "company"

// Files are the optional uploads accompanying a save.
type Files struct {
	Logo       *upload.File
	ProfilePDF *upload.File
}

// Service handles company profile business logic.
type Service struct {
	repo  Repository
	media *content.Media
}

// NewService builds Service instance.
func NewService(repo Repository, media *content.Media) *Service {
	return &Service{repo: repo, media: media}
}

// GetProfile returns the stored profile.
func (s *Service) GetProfile(ctx context.Context) (Profile, error) {
	return s.repo.GetProfile(ctx)
}

// SaveProfile creates the profile on first save and overwrites it afterwards.
// created reports which of the two happened.
func (s *Service) SaveProfile(ctx context.Context, in ProfileInput, files Files, actorID *int64) (saved Profile, created bool, err error) {
	in = normalize(in)
	if err := shared.ValidateStruct(in); err != nil {
		return Profile{}, false, err
	}
	logo, err := s.media.Attach(ctx, mediaKind, files.Logo, in.LogoURL)
	if err != nil {
		return Profile{}, false, err
	}
	pdf, err := s.media.Attach(ctx, mediaKind, files.ProfilePDF, in.ProfilePDFURL)
	if err != nil {
		_ = s.media.Settle(ctx, err, []content.Attachment{logo})
		return Profile{}, false, err
	}
	in.LogoURL, in.ProfilePDFURL = logo.URL, pdf.URL

	var previous Profile
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetProfileForUpdate(ctx)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			p, err := tx.InsertProfile(ctx, in)
			if err != nil {
				return err
			}
			saved, created = p, true
			return shared.LogActivity(ctx, tx, actorID, "Tambah Profil Perusahaan", fmt.Sprintf("Membuat profil perusahaan %s", p.Name))
		case err != nil:
			return err
		}
		previous = current
		if in.LogoURL == "" {
			in.LogoURL = current.LogoURL
		}
		if in.ProfilePDFURL == "" {
			in.ProfilePDFURL = current.ProfilePDFURL
		}
		p, err := tx.UpdateProfile(ctx, current.ID, in)
		if err != nil {
			return err
		}
		saved = p
		return shared.LogActivity(ctx, tx, actorID, "Ubah Profil Perusahaan", fmt.Sprintf("Mengubah profil perusahaan %s", p.Name))
	})
	logo.URL, pdf.URL = in.LogoURL, in.ProfilePDFURL
	if err := s.media.Settle(ctx, err, []content.Attachment{logo, pdf}, previous.LogoURL, previous.ProfilePDFURL); err != nil {
		return Profile{}, false, err
	}
	return saved, created, nil
}

// DeleteProfile removes the profile, releases its media and returns the
// removed id.
func (s *Service) DeleteProfile(ctx context.Context, actorID *int64) (int64, error) {
	var removed Profile
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetProfileForUpdate(ctx)
		if err != nil {
			return err
		}
		if err := tx.DeleteProfile(ctx, current.ID); err != nil {
			return err
		}
		removed = current
		return shared.LogActivity(ctx, tx, actorID, "Hapus Profil Perusahaan", fmt.Sprintf("Menghapus profil perusahaan %s", current.Name))
	})
	if err != nil {
		return 0, err
	}
	s.media.Release(ctx, removed.LogoURL, removed.ProfilePDFURL)
	return removed.ID, nil
}

func normalize(in ProfileInput) ProfileInput {
	for _, f := range []*string{&in.Name, &in.Tagline, &in.About, &in.Vision, &in.Mission, &in.Address,
		&in.Phone, &in.Email, &in.WhatsApp, &in.LogoURL, &in.ProfilePDFURL} {
		*f = strings.TrimSpace(*f)
	}
	return in
}
