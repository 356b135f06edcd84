package numbering

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestNextStartsDayAtOneAndIncrements(t *testing.T) {
	date := day(2024, time.June, 15)

	first, err := Next("", date)
	require.NoError(t, err)
	assert.Equal(t, "ORC-240615-001", first)

	second, err := Next(first, date)
	require.NoError(t, err)
	assert.Equal(t, "ORC-240615-002", second)
}

func TestNextGrowsPastThreeDigits(t *testing.T) {
	next, err := Next("ORC-240615-999", day(2024, time.June, 15))
	require.NoError(t, err)
	assert.Equal(t, "ORC-240615-1000", next)

	seq, err := ParseSequence(next)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), seq)
}

func TestSameDaySuffixesNeverRepeat(t *testing.T) {
	date := day(2024, time.January, 2)
	seen := map[string]bool{}
	last := ""
	for i := 1; i <= 50; i++ {
		next, err := Next(last, date)
		require.NoError(t, err)
		require.False(t, seen[next], next)
		seen[next] = true
		seq, err := ParseSequence(next)
		require.NoError(t, err)
		assert.Equal(t, int64(i), seq)
		last = next
	}
}

func TestParseSequenceRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"ORC-240615", "ORC-240615-", "ORC-240615-abc", "garbage"} {
		_, err := ParseSequence(raw)
		assert.ErrorIs(t, err, ErrMalformedNumber, raw)
	}
}

func TestNextRejectsNumberFromAnotherDay(t *testing.T) {
	_, err := Next("ORC-240614-004", day(2024, time.June, 15))
	assert.ErrorIs(t, err, ErrMalformedNumber)
}

func TestPrefixUsesLocationCalendar(t *testing.T) {
	sp := time.FixedZone("BRT", -3*60*60)
	utcLate := time.Date(2024, time.June, 16, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, "ORC-240616", Prefix(utcLate))
	assert.Equal(t, "ORC-240615", Prefix(utcLate.In(sp)))
}

type fakeRow struct {
	value any
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *string:
		*d = r.value.(string)
	case *int64:
		*d = r.value.(int64)
	}
	return nil
}

type fakeDB struct {
	row   fakeRow
	query string
	args  []any
}

func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.query = query
	f.args = args
	return f.row
}

func TestScanAllocator(t *testing.T) {
	date := day(2024, time.June, 15)

	empty := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	number, err := ScanAllocator{}.Allocate(context.Background(), empty, date)
	require.NoError(t, err)
	assert.Equal(t, "ORC-240615-001", number)
	assert.Equal(t, []any{"ORC-240615-%"}, empty.args)

	existing := &fakeDB{row: fakeRow{value: "ORC-240615-007"}}
	number, err = ScanAllocator{}.Allocate(context.Background(), existing, date)
	require.NoError(t, err)
	assert.Equal(t, "ORC-240615-008", number)

	failing := &fakeDB{row: fakeRow{err: errors.New("connection reset")}}
	_, err = ScanAllocator{}.Allocate(context.Background(), failing, date)
	assert.Error(t, err)
}

func TestCounterAllocator(t *testing.T) {
	date := day(2024, time.June, 15)
	fake := &fakeDB{row: fakeRow{value: int64(3)}}
	number, err := CounterAllocator{}.Allocate(context.Background(), fake, date)
	require.NoError(t, err)
	assert.Equal(t, "ORC-240615-003", number)
	assert.Equal(t, []any{"ORC", "240615", "ORC-240615-%"}, fake.args)

	_, err = CounterAllocator{}.Allocate(context.Background(), &fakeDB{row: fakeRow{err: errors.New("boom")}}, date)
	assert.Error(t, err)
}

func TestCounterAllocatorSeedsFromStoredNumbers(t *testing.T) {
	fake := &fakeDB{row: fakeRow{value: int64(1)}}
	_, err := CounterAllocator{}.Allocate(context.Background(), fake, day(2024, time.June, 15))
	require.NoError(t, err)

	query := strings.Join(strings.Fields(fake.query), " ")
	assert.Contains(t, query, "INSERT INTO document_sequences (doc_type, period, seq) VALUES ($1, $2, COALESCE((")
	assert.Contains(t, query, "SELECT MAX(CAST(split_part(quote_number, '-', 3) AS BIGINT)) FROM quotes WHERE quote_number LIKE $3")
	assert.Contains(t, query, "split_part(quote_number, '-', 3) ~ '^[0-9]+$'")
	assert.Contains(t, query, "), 0) + 1)")
	assert.Contains(t, query, "ON CONFLICT (doc_type, period) DO UPDATE SET seq = document_sequences.seq + 1")
	assert.True(t, strings.HasSuffix(query, "RETURNING seq"))
}

func TestNewAllocator(t *testing.T) {
	a, err := NewAllocator("counter")
	require.NoError(t, err)
	assert.IsType(t, CounterAllocator{}, a)
	a, err = NewAllocator("scan")
	require.NoError(t, err)
	assert.IsType(t, ScanAllocator{}, a)
	_, err = NewAllocator("random")
	assert.Error(t, err)
}
