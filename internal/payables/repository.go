package payables

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	// ErrNotFound is returned when an entry or series does not exist.
	ErrNotFound = fmt.Errorf("accounts payable %w", httpx.ErrNotFound)
	// ErrUnknownSupplier is returned when supplierId references no supplier.
	ErrUnknownSupplier = fmt.Errorf("%w: supplier does not exist", httpx.ErrValidation)
)

// Repository defines persistence for accounts payable.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Insert(ctx context.Context, entry Entry) (Entry, error)
	Get(ctx context.Context, id int64) (Entry, error)
	List(ctx context.Context, filters ListFilters) ([]Entry, int, error)
	Update(ctx context.Context, entry Entry) (Entry, error)
	SetPaid(ctx context.Context, id int64, paid bool, at time.Time) (Entry, error)
	Delete(ctx context.Context, id int64) error
	ListSeries(ctx context.Context, seriesID string) ([]Entry, error)
	DeleteSeries(ctx context.Context, seriesID string) (int64, error)
	Summary(ctx context.Context, window SummaryWindow) (Summary, error)
	ListOpenDueBy(ctx context.Context, until shared.Date) ([]Entry, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// WithTx runs fn on a repository bound to one transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const entryColumns = `id, name, amount, due_date, paid, paid_at, notes, category, supplier_id,
	series_id, installment_number_of_series, total_installments_in_series, created_by, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var due time.Time
	err := row.Scan(&e.ID, &e.Name, &e.Amount, &due, &e.Paid, &e.PaidAt, &e.Notes, &e.Category, &e.SupplierID,
		&e.SeriesID, &e.InstallmentNumberOfSeries, &e.TotalInstallmentsInSeries, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entry{}, err
	}
	e.DueDate = shared.DateOf(due)
	return e, nil
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func mapWriteError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if db.IsForeignKeyViolation(err) {
		return ErrUnknownSupplier
	}
	return err
}

func (r *repository) Insert(ctx context.Context, e Entry) (Entry, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts_payable
		(name, amount, due_date, notes, category, supplier_id, series_id,
		 installment_number_of_series, total_installments_in_series, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+entryColumns,
		e.Name, e.Amount, e.DueDate.Time(), e.Notes, e.Category, e.SupplierID, e.SeriesID,
		e.InstallmentNumberOfSeries, e.TotalInstallmentsInSeries, e.CreatedBy)
	inserted, err := scanEntry(row)
	if err != nil {
		return Entry{}, mapWriteError(err)
	}
	return inserted, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Entry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM accounts_payable WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *repository) List(ctx context.Context, f ListFilters) ([]Entry, int, error) {
	var conditions []string
	var args []any
	argPos := 1
	add := func(cond string, arg any) {
		conditions = append(conditions, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(argPos)))
		args = append(args, arg)
		argPos++
	}
	if f.Paid != nil {
		add("paid = ?", *f.Paid)
	}
	if !f.DueFrom.IsZero() {
		add("due_date >= ?", f.DueFrom.Time())
	}
	if !f.DueTo.IsZero() {
		add("due_date <= ?", f.DueTo.Time())
	}
	if f.SeriesID != "" {
		add("series_id = ?", f.SeriesID)
	}
	if f.SupplierID > 0 {
		add("supplier_id = ?", f.SupplierID)
	}
	if f.Search != "" {
		add("(name ILIKE ? OR category ILIKE ?)", shared.ContainsPattern(f.Search))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM accounts_payable "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM accounts_payable %s
		ORDER BY due_date, id
		LIMIT $%d OFFSET $%d`, entryColumns, where, argPos, argPos+1)
	args = append(args, f.Page.Limit(), f.Page.Offset())
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *repository) Update(ctx context.Context, e Entry) (Entry, error) {
	row := r.db.QueryRow(ctx, `UPDATE accounts_payable
		SET name = $2, amount = $3, due_date = $4, notes = $5, category = $6, supplier_id = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+entryColumns,
		e.ID, e.Name, e.Amount, e.DueDate.Time(), e.Notes, e.Category, e.SupplierID)
	updated, err := scanEntry(row)
	if err != nil {
		return Entry{}, mapWriteError(err)
	}
	return updated, nil
}

func (r *repository) SetPaid(ctx context.Context, id int64, paid bool, at time.Time) (Entry, error) {
	var paidAt *time.Time
	if paid {
		paidAt = &at
	}
	row := r.db.QueryRow(ctx, `UPDATE accounts_payable
		SET paid = $2, paid_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+entryColumns, id, paid, paidAt)
	updated, err := scanEntry(row)
	if err != nil {
		return Entry{}, mapWriteError(err)
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts_payable WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListSeries(ctx context.Context, seriesID string) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM accounts_payable
		WHERE series_id = $1
		ORDER BY installment_number_of_series`, seriesID)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func (r *repository) DeleteSeries(ctx context.Context, seriesID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts_payable WHERE series_id = $1`, seriesID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) Summary(ctx context.Context, w SummaryWindow) (Summary, error) {
	var s Summary
	err := r.db.QueryRow(ctx, `SELECT
		COALESCE(SUM(amount) FILTER (WHERE NOT paid), 0),
		COUNT(*) FILTER (WHERE NOT paid),
		COALESCE(SUM(amount) FILTER (WHERE NOT paid AND due_date < $1), 0),
		COUNT(*) FILTER (WHERE NOT paid AND due_date < $1),
		COALESCE(SUM(amount) FILTER (WHERE NOT paid AND due_date BETWEEN $1 AND $2), 0),
		COUNT(*) FILTER (WHERE NOT paid AND due_date BETWEEN $1 AND $2),
		COALESCE(SUM(amount) FILTER (WHERE paid AND paid_at >= $3 AND paid_at < $4), 0)
		FROM accounts_payable`,
		w.Today.Time(), w.DueSoonEnd.Time(), w.MonthStart, w.MonthEnd).Scan(
		&s.OpenTotal, &s.OpenCount, &s.OverdueTotal, &s.OverdueCount, &s.DueSoonTotal, &s.DueSoonCount, &s.PaidThisMonthTotal)
	if err != nil {
		return Summary{}, err
	}
	return s, nil
}

func (r *repository) ListOpenDueBy(ctx context.Context, until shared.Date) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM accounts_payable
		WHERE NOT paid AND due_date <= $1
		ORDER BY due_date, id`, until.Time())
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}
