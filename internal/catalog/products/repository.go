package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound     = fmt.Errorf("product %w", httpx.ErrNotFound)
	ErrDuplicateSKU = fmt.Errorf("%w: sku already in use", httpx.ErrDuplicate)
	ErrUnknownRef   = fmt.Errorf("%w: category or supplier does not exist", httpx.ErrValidation)
)

// Repository persists products.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const columns = `id, name, sku, description, unit, price, cost, category_id, supplier_id, is_active, created_at, updated_at`

func scan(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Description, &p.Unit, &p.Price, &p.Cost,
		&p.CategoryID, &p.SupplierID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func mapError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err, "uq_products_sku"):
		return ErrDuplicateSKU
	case db.IsForeignKeyViolation(err):
		return ErrUnknownRef
	}
	return err
}

func (r *repository) List(ctx context.Context, f ListFilters) ([]Product, int, error) {
	var conditions []string
	var args []any
	argPos := 1
	add := func(cond string, arg any) {
		conditions = append(conditions, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(argPos)))
		args = append(args, arg)
		argPos++
	}
	if f.Search != "" {
		add("(search_key LIKE ? OR sku ILIKE ?)", shared.LikePattern(f.Search))
	}
	if f.CategoryID > 0 {
		add("category_id = ?", f.CategoryID)
	}
	if f.SupplierID > 0 {
		add("supplier_id = ?", f.SupplierID)
	}
	if f.Active != nil {
		add("is_active = ?", *f.Active)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM products "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf("SELECT %s FROM products %s ORDER BY name, id LIMIT $%d OFFSET $%d",
		columns, where, argPos, argPos+1)
	rows, err := r.db.Query(ctx, query, append(args, f.Page.Limit(), f.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scan(r.db.QueryRow(ctx, "SELECT "+columns+" FROM products WHERE id = $1", id))
	if err != nil {
		return Product{}, mapError(err)
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	created, err := scan(r.db.QueryRow(ctx, `INSERT INTO products
		(name, search_key, sku, description, unit, price, cost, category_id, supplier_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+columns,
		p.Name, shared.SearchKey(p.Name), p.SKU, p.Description, p.Unit, p.Price, p.Cost,
		p.CategoryID, p.SupplierID, p.Active))
	if err != nil {
		return Product{}, mapError(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, p Product) (Product, error) {
	updated, err := scan(r.db.QueryRow(ctx, `UPDATE products
		SET name = $2, search_key = $3, sku = $4, description = $5, unit = $6, price = $7, cost = $8,
			category_id = $9, supplier_id = $10, is_active = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns,
		p.ID, p.Name, shared.SearchKey(p.Name), p.SKU, p.Description, p.Unit, p.Price, p.Cost,
		p.CategoryID, p.SupplierID, p.Active))
	if err != nil {
		return Product{}, mapError(err)
	}
	return updated, nil
}

// Delete removes the product; quote items keep their description and price.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
