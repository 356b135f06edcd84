package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/numbering"
	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	// ErrNotFound is returned when no quote matches.
	ErrNotFound = fmt.Errorf("quote %w", httpx.ErrNotFound)
	// ErrNumberTaken signals that another transaction committed the same
	// quote number first. Creation retries on it.
	ErrNumberTaken = errors.New("quote number already taken")
	// ErrStatusChanged is returned when the stored status no longer matches
	// the one a transition was validated against.
	ErrStatusChanged = fmt.Errorf("%w: quote status changed concurrently", httpx.ErrConflict)
	// ErrUnknownReference is returned when a customer or product id does not exist.
	ErrUnknownReference = fmt.Errorf("%w: customer or product does not exist", httpx.ErrValidation)
)

const numberConstraint = "uq_quotes_quote_number"

// Repository defines persistence for quotes.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	AllocateNumber(ctx context.Context, alloc numbering.Allocator, date time.Time) (string, error)
	Insert(ctx context.Context, q Quote) (Quote, error)
	Get(ctx context.Context, id int64) (Quote, error)
	GetByNumber(ctx context.Context, number string) (Quote, error)
	List(ctx context.Context, filters ListFilters, loc *time.Location) ([]Quote, int, error)
	Update(ctx context.Context, q Quote) (Quote, error)
	SetStatus(ctx context.Context, id int64, from, to Status) (Quote, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// WithTx runs fn on a repository bound to one ReadCommitted transaction. The
// per-day counter upsert needs ReadCommitted so a second creator waits on the
// row lock and then sees the committed value instead of failing to serialise.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) AllocateNumber(ctx context.Context, alloc numbering.Allocator, date time.Time) (string, error) {
	return alloc.Allocate(ctx, r.db, date)
}

const quoteColumns = `id, quote_number, customer_id, customer_name, status, subtotal, discount, cash_total,
	card_total, valid_until, payment_terms, notes, salesperson_id, salesperson_name, company_snapshot,
	created_at, updated_at`

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	var validUntil time.Time
	var snapshot []byte
	err := row.Scan(&q.ID, &q.QuoteNumber, &q.CustomerID, &q.CustomerName, &q.Status, &q.Subtotal,
		&q.Discount, &q.CashTotal, &q.CardTotal, &validUntil, &q.PaymentTerms, &q.Notes,
		&q.SalespersonID, &q.SalespersonName, &snapshot, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return Quote{}, err
	}
	q.ValidUntil = shared.DateOf(validUntil)
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &q.Company); err != nil {
			return Quote{}, fmt.Errorf("decode company snapshot: %w", err)
		}
	}
	return q, nil
}

func mapWriteError(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err, numberConstraint):
		return ErrNumberTaken
	case db.IsForeignKeyViolation(err):
		return ErrUnknownReference
	}
	return err
}

func (r *repository) Insert(ctx context.Context, q Quote) (Quote, error) {
	snapshot, err := json.Marshal(q.Company)
	if err != nil {
		return Quote{}, fmt.Errorf("encode company snapshot: %w", err)
	}
	created, err := scanQuote(r.db.QueryRow(ctx, `INSERT INTO quotes
		(quote_number, customer_id, customer_name, status, subtotal, discount, cash_total, card_total,
		 valid_until, payment_terms, notes, salesperson_id, salesperson_name, company_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+quoteColumns,
		q.QuoteNumber, q.CustomerID, q.CustomerName, q.Status, q.Subtotal, q.Discount, q.CashTotal,
		q.CardTotal, q.ValidUntil.Time(), q.PaymentTerms, q.Notes, q.SalespersonID, q.SalespersonName, snapshot))
	if err != nil {
		return Quote{}, mapWriteError(err)
	}
	items, err := r.insertItems(ctx, created.ID, q.Items)
	if err != nil {
		return Quote{}, err
	}
	created.Items = items
	return created, nil
}

func (r *repository) insertItems(ctx context.Context, quoteID int64, items []Item) ([]Item, error) {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		err := r.db.QueryRow(ctx, `INSERT INTO quote_items
			(quote_id, product_id, description, quantity, unit_price, total, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			quoteID, it.ProductID, it.Description, it.Quantity, it.UnitPrice, it.Total, it.Position).Scan(&it.ID)
		if err != nil {
			return nil, mapWriteError(err)
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *repository) loadItems(ctx context.Context, quoteID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id, product_id, description, quantity, unit_price, total, position
		FROM quote_items WHERE quote_id = $1 ORDER BY position`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Total, &it.Position); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) getWhere(ctx context.Context, cond string, arg any) (Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, "SELECT "+quoteColumns+" FROM quotes WHERE "+cond, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, ErrNotFound
		}
		return Quote{}, err
	}
	if q.Items, err = r.loadItems(ctx, q.ID); err != nil {
		return Quote{}, err
	}
	return q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Quote, error) {
	return r.getWhere(ctx, "id = $1", id)
}

func (r *repository) GetByNumber(ctx context.Context, number string) (Quote, error) {
	return r.getWhere(ctx, "quote_number = $1", number)
}

// List returns quote headers without items, newest first.
func (r *repository) List(ctx context.Context, f ListFilters, loc *time.Location) ([]Quote, int, error) {
	var conditions []string
	var args []any
	argPos := 1
	add := func(cond string, arg any) {
		conditions = append(conditions, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(argPos)))
		args = append(args, arg)
		argPos++
	}
	if f.Status != "" {
		add("status = ?", f.Status)
	}
	if f.CustomerID > 0 {
		add("customer_id = ?", f.CustomerID)
	}
	if f.Search != "" {
		add("(quote_number ILIKE ? OR customer_name ILIKE ?)", shared.ContainsPattern(f.Search))
	}
	if !f.From.IsZero() {
		add("created_at >= ?", f.From.In(loc))
	}
	if !f.To.IsZero() {
		add("created_at < ?", f.To.AddDays(1).In(loc))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM quotes "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM quotes %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, quoteColumns, where, argPos, argPos+1)
	rows, err := r.db.Query(ctx, query, append(args, f.Page.Limit(), f.Page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, q)
	}
	return out, total, rows.Err()
}

// Update rewrites the editable header fields and replaces the items. Callers
// run it inside WithTx. The row must still carry q.Status and that status must
// be editable, otherwise ErrStatusChanged is returned and nothing is written.
func (r *repository) Update(ctx context.Context, q Quote) (Quote, error) {
	updated, err := scanQuote(r.db.QueryRow(ctx, `UPDATE quotes
		SET customer_id = $2, customer_name = $3, subtotal = $4, discount = $5, cash_total = $6,
			card_total = $7, valid_until = $8, payment_terms = $9, notes = $10, updated_at = NOW()
		WHERE id = $1 AND status = $11 AND status IN ('draft', 'sent')
		RETURNING `+quoteColumns,
		q.ID, q.CustomerID, q.CustomerName, q.Subtotal, q.Discount, q.CashTotal, q.CardTotal,
		q.ValidUntil.Time(), q.PaymentTerms, q.Notes, q.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, ErrStatusChanged
		}
		return Quote{}, mapWriteError(err)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, q.ID); err != nil {
		return Quote{}, err
	}
	if updated.Items, err = r.insertItems(ctx, q.ID, q.Items); err != nil {
		return Quote{}, err
	}
	return updated, nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, from, to Status) (Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `UPDATE quotes SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+quoteColumns, id, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, ErrStatusChanged
		}
		return Quote{}, err
	}
	if q.Items, err = r.loadItems(ctx, id); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// Delete removes the quote; its items cascade.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
