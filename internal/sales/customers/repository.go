package customers

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

var ErrNotFound = fmt.Errorf("customer %w", httpx.ErrNotFound)

// Repository persists customers.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const columns = `id, name, document, email, phone, address, city, state, notes, created_at, updated_at`

func scan(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone, &c.Address, &c.City, &c.State,
		&c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

func (r *repository) List(ctx context.Context, f shared.ListFilters) ([]Customer, int, error) {
	where := ""
	args := []any{}
	if f.Search != "" {
		where = "WHERE search_key LIKE $1 OR document LIKE $1 OR email ILIKE $1"
		args = append(args, shared.LikePattern(f.Search))
	}
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf("SELECT %s FROM customers %s ORDER BY name, id LIMIT $%d OFFSET $%d",
		columns, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, f.Page.Limit(), f.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []Customer{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	return scan(r.db.QueryRow(ctx, "SELECT "+columns+" FROM customers WHERE id = $1", id))
}

func (r *repository) Create(ctx context.Context, c Customer) (Customer, error) {
	return scan(r.db.QueryRow(ctx, `INSERT INTO customers
		(name, search_key, document, email, phone, address, city, state, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+columns,
		c.Name, shared.SearchKey(c.Name), c.Document, c.Email, c.Phone, c.Address, c.City, c.State, c.Notes))
}

func (r *repository) Update(ctx context.Context, c Customer) (Customer, error) {
	return scan(r.db.QueryRow(ctx, `UPDATE customers
		SET name = $2, search_key = $3, document = $4, email = $5, phone = $6, address = $7,
			city = $8, state = $9, notes = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		c.ID, c.Name, shared.SearchKey(c.Name), c.Document, c.Email, c.Phone, c.Address, c.City, c.State, c.Notes))
}

// Delete removes the customer. quotes.customer_id is nulled by the foreign key
// and the quote keeps its customer_name snapshot.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
