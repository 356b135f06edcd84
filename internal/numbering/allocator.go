package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bizdesk/bizdesk/internal/platform/db"
)

// Allocator hands out the next quote number for a date. Implementations run
// on the caller's transaction so the number commits or rolls back with the
// quote that carries it.
type Allocator interface {
	Allocate(ctx context.Context, q db.DBTX, date time.Time) (string, error)
}

// NewAllocator returns the allocator for a configured strategy name.
func NewAllocator(strategy string) (Allocator, error) {
	switch strategy {
	case "", "counter":
		return CounterAllocator{}, nil
	case "scan":
		return ScanAllocator{}, nil
	default:
		return nil, fmt.Errorf("numbering: unknown strategy %q", strategy)
	}
}

// ScanAllocator reads the greatest existing number for the day and
// increments it. Two concurrent callers can read the same maximum; the unique
// constraint on quotes.quote_number turns that into a retryable conflict.
type ScanAllocator struct{}

// Allocate implements Allocator.
func (ScanAllocator) Allocate(ctx context.Context, q db.DBTX, date time.Time) (string, error) {
	prefix := Prefix(date)
	var last string
	err := q.QueryRow(ctx, `SELECT quote_number FROM quotes
		WHERE quote_number LIKE $1
		ORDER BY length(quote_number) DESC, quote_number DESC
		LIMIT 1`, prefix+"-%").Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("numbering: read last number: %w", err)
	}
	return Next(last, date)
}

// CounterAllocator increments a per-day row in document_sequences. The first
// allocation of a day seeds the counter from numbers already stored, so rows
// written by the scan strategy are never reused. The row lock held by the
// upsert serialises concurrent creators until their transaction ends.
type CounterAllocator struct{}

const counterSQL = `INSERT INTO document_sequences (doc_type, period, seq)
VALUES ($1, $2, COALESCE((
	SELECT MAX(CAST(split_part(quote_number, '-', 3) AS BIGINT))
	FROM quotes
	WHERE quote_number LIKE $3 AND split_part(quote_number, '-', 3) ~ '^[0-9]+$'
), 0) + 1)
ON CONFLICT (doc_type, period) DO UPDATE SET seq = document_sequences.seq + 1
RETURNING seq`

// Allocate implements Allocator.
func (CounterAllocator) Allocate(ctx context.Context, q db.DBTX, date time.Time) (string, error) {
	prefix := Prefix(date)
	var seq int64
	if err := q.QueryRow(ctx, counterSQL, QuoteCode, date.Format("060102"), prefix+"-%").Scan(&seq); err != nil {
		return "", fmt.Errorf("numbering: increment counter: %w", err)
	}
	return Format(prefix, seq), nil
}
