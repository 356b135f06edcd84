package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

var ErrNotFound = fmt.Errorf("supplier %w", httpx.ErrNotFound)

// Repository persists suppliers.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, s Supplier) (Supplier, error)
	Update(ctx context.Context, s Supplier) (Supplier, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const columns = `id, name, document, contact_name, email, phone, address, notes, created_at, updated_at`

func scan(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Document, &s.ContactName, &s.Email, &s.Phone, &s.Address,
		&s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	return s, err
}

func (r *repository) List(ctx context.Context, f shared.ListFilters) ([]Supplier, int, error) {
	where := ""
	args := []any{}
	if f.Search != "" {
		where = "WHERE search_key LIKE $1 OR document LIKE $1"
		args = append(args, shared.LikePattern(f.Search))
	}
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM suppliers "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf("SELECT %s FROM suppliers %s ORDER BY name, id LIMIT $%d OFFSET $%d",
		columns, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, f.Page.Limit(), f.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []Supplier{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Supplier, error) {
	return scan(r.db.QueryRow(ctx, "SELECT "+columns+" FROM suppliers WHERE id = $1", id))
}

func (r *repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	return scan(r.db.QueryRow(ctx, `INSERT INTO suppliers
		(name, search_key, document, contact_name, email, phone, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+columns,
		s.Name, shared.SearchKey(s.Name), s.Document, s.ContactName, s.Email, s.Phone, s.Address, s.Notes))
}

func (r *repository) Update(ctx context.Context, s Supplier) (Supplier, error) {
	return scan(r.db.QueryRow(ctx, `UPDATE suppliers
		SET name = $2, search_key = $3, document = $4, contact_name = $5, email = $6, phone = $7,
			address = $8, notes = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		s.ID, s.Name, shared.SearchKey(s.Name), s.Document, s.ContactName, s.Email, s.Phone, s.Address, s.Notes))
}

// Delete removes the supplier. Products and payables referencing it keep their
// rows with supplier_id set to NULL.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM suppliers WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
