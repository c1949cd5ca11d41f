package company

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/kreasi-nusantara/compro/internal/platform/db"
	"github.com/kreasi-nusantara/compro/internal/shared"
)

// Repository defines read access plus the transactional entry point.
type Repository interface {
	GetProfile(ctx context.Context) (Profile, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes writes that run inside one transaction.
type TxRepository interface {
	shared.ActivityWriter
	GetProfileForUpdate(ctx context.Context) (Profile, error)
	InsertProfile(ctx context.Context, in ProfileInput) (Profile, error)
	UpdateProfile(ctx context.Context, id int64, in ProfileInput) (Profile, error)
	DeleteProfile(ctx context.Context, id int64) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	gw    *db.Gateway
	db    db.DBTX
	audit *shared.AuditLogger
}

// NewRepository constructs a repository.
func NewRepository(gw *db.Gateway, audit *shared.AuditLogger) *PGRepository {
	return &PGRepository{gw: gw, db: gw.DB(), audit: audit}
}

// WithTx runs fn with a repository bound to a single transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.gw.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{gw: r.gw, db: tx, audit: r.audit})
	})
}

const profileColumns = `id, name, tagline, about, vision, mission, address, phone, email, whatsapp,
	logo_url, profile_pdf_url, created_at, updated_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Name, &p.Tagline, &p.About, &p.Vision, &p.Mission, &p.Address, &p.Phone,
		&p.Email, &p.WhatsApp, &p.LogoURL, &p.ProfilePDFURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetProfile returns the stored profile.
func (r *PGRepository) GetProfile(ctx context.Context) (Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM company_profiles ORDER BY id LIMIT 1`))
	return p, db.MapError("profil perusahaan", err)
}

// GetProfileForUpdate returns and locks the stored profile.
func (r *PGRepository) GetProfileForUpdate(ctx context.Context) (Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM company_profiles ORDER BY id LIMIT 1 FOR UPDATE`))
	return p, db.MapError("profil perusahaan", err)
}

// InsertProfile inserts the profile row. The singleton index turns a racing
// second insert into a unique violation.
func (r *PGRepository) InsertProfile(ctx context.Context, in ProfileInput) (Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `INSERT INTO company_profiles
		(name, tagline, about, vision, mission, address, phone, email, whatsapp, logo_url, profile_pdf_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+profileColumns,
		in.Name, in.Tagline, in.About, in.Vision, in.Mission, in.Address, in.Phone, in.Email, in.WhatsApp,
		in.LogoURL, in.ProfilePDFURL))
	return p, db.MapError("profil perusahaan", err)
}

// UpdateProfile overwrites the profile row.
func (r *PGRepository) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `UPDATE company_profiles SET
		name = $2, tagline = $3, about = $4, vision = $5, mission = $6, address = $7, phone = $8,
		email = $9, whatsapp = $10, logo_url = $11, profile_pdf_url = $12, updated_at = NOW()
		WHERE id = $1 RETURNING `+profileColumns,
		id, in.Name, in.Tagline, in.About, in.Vision, in.Mission, in.Address, in.Phone, in.Email, in.WhatsApp,
		in.LogoURL, in.ProfilePDFURL))
	return p, db.MapError("profil perusahaan", err)
}

// DeleteProfile removes the profile row.
func (r *PGRepository) DeleteProfile(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM company_profiles WHERE id = $1`, id)
	if err != nil {
		return db.MapError("profil perusahaan", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("profil perusahaan")
	}
	return nil
}

// AppendActivity writes the activity row on the same handle.
func (r *PGRepository) AppendActivity(ctx context.Context, entry shared.ActivityLog) error {
	return r.audit.Record(ctx, r.db, entry)
}

var (
	_ Repository   = (*PGRepository)(nil)
	_ TxRepository = (*PGRepository)(nil)
)
