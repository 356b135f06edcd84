package settings

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
)

// Repository persists the company settings row.
type Repository interface {
	GetCompany(ctx context.Context) (Company, error)
	UpdateCompany(ctx context.Context, c Company) (Company, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const companyColumns = `name, document, address, phone, email, website, logo_url,
	card_fee_percent, quote_validity_days, quote_footer, updated_at`

func (r *repository) GetCompany(ctx context.Context) (Company, error) {
	var c Company
	err := r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM company_settings WHERE id = 1`).Scan(
		&c.Name, &c.Document, &c.Address, &c.Phone, &c.Email, &c.Website, &c.LogoURL,
		&c.CardFeePercent, &c.QuoteValidityDays, &c.QuoteFooter, &c.UpdatedAt)
	return c, err
}

// UpdateCompany upserts so a database migrated without the seed row still works.
func (r *repository) UpdateCompany(ctx context.Context, c Company) (Company, error) {
	var out Company
	err := r.db.QueryRow(ctx, `INSERT INTO company_settings
		(id, name, document, address, phone, email, website, logo_url, card_fee_percent, quote_validity_days, quote_footer, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, document = EXCLUDED.document, address = EXCLUDED.address,
			phone = EXCLUDED.phone, email = EXCLUDED.email, website = EXCLUDED.website,
			logo_url = EXCLUDED.logo_url, card_fee_percent = EXCLUDED.card_fee_percent,
			quote_validity_days = EXCLUDED.quote_validity_days, quote_footer = EXCLUDED.quote_footer,
			updated_at = NOW()
		RETURNING `+companyColumns,
		c.Name, c.Document, c.Address, c.Phone, c.Email, c.Website, c.LogoURL,
		c.CardFeePercent, c.QuoteValidityDays, c.QuoteFooter).Scan(
		&out.Name, &out.Document, &out.Address, &out.Phone, &out.Email, &out.Website, &out.LogoURL,
		&out.CardFeePercent, &out.QuoteValidityDays, &out.QuoteFooter, &out.UpdatedAt)
	return out, err
}
