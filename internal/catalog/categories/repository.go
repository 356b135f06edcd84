package categories

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

var (
	ErrNotFound      = fmt.Errorf("category %w", httpx.ErrNotFound)
	ErrDuplicateName = fmt.Errorf("%w: category name already exists", httpx.ErrDuplicate)
)

// Repository persists categories.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Category, int, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, c Category) (Category, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const columns = `id, name, description, created_at, updated_at`

func scan(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func mapError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err, "uq_categories_name"):
		return ErrDuplicateName
	}
	return err
}

func (r *repository) List(ctx context.Context, f shared.ListFilters) ([]Category, int, error) {
	where := ""
	args := []any{}
	if f.Search != "" {
		where = "WHERE name ILIKE $1"
		args = append(args, shared.ContainsPattern(f.Search))
	}
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM categories "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf("SELECT %s FROM categories %s ORDER BY name LIMIT $%d OFFSET $%d",
		columns, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, f.Page.Limit(), f.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	c, err := scan(r.db.QueryRow(ctx, "SELECT "+columns+" FROM categories WHERE id = $1", id))
	if err != nil {
		return Category{}, mapError(err)
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, c Category) (Category, error) {
	created, err := scan(r.db.QueryRow(ctx, `INSERT INTO categories (name, description)
		VALUES ($1, $2) RETURNING `+columns, c.Name, c.Description))
	if err != nil {
		return Category{}, mapError(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, c Category) (Category, error) {
	updated, err := scan(r.db.QueryRow(ctx, `UPDATE categories
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1 RETURNING `+columns, c.ID, c.Name, c.Description))
	if err != nil {
		return Category{}, mapError(err)
	}
	return updated, nil
}

// Delete removes the category; products.category_id is nulled by the foreign key.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
