package payables

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// memoryRepo is an in-memory Repository. WithTx works on a copy of the rows
// and only publishes it when fn succeeds.
type memoryRepo struct {
	mu          *sync.Mutex
	rows        map[int64]Entry
	nextID      *int64
	failInsertN int
	inserts     int
	suppliers   map[int64]bool
}

func newMemoryRepo() *memoryRepo {
	var next int64
	return &memoryRepo{mu: &sync.Mutex{}, rows: map[int64]Entry{}, nextID: &next}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	snapshot := make(map[int64]Entry, len(m.rows))
	for k, v := range m.rows {
		snapshot[k] = v
	}
	next := *m.nextID
	m.mu.Unlock()

	tx := &memoryRepo{mu: &sync.Mutex{}, rows: snapshot, nextID: &next, failInsertN: m.failInsertN, inserts: m.inserts, suppliers: m.suppliers}
	if err := fn(ctx, tx); err != nil {
		m.inserts = tx.inserts
		return err
	}
	m.mu.Lock()
	m.rows = tx.rows
	*m.nextID = next
	m.inserts = tx.inserts
	m.mu.Unlock()
	return nil
}

func (m *memoryRepo) Insert(_ context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.failInsertN > 0 && m.inserts == m.failInsertN {
		return Entry{}, errors.New("connection lost")
	}
	if e.SupplierID != nil && !m.suppliers[*e.SupplierID] {
		return Entry{}, ErrUnknownSupplier
	}
	*m.nextID++
	e.ID = *m.nextID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.rows[e.ID] = e
	return e, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryRepo) sorted(keep func(Entry) bool) []Entry {
	out := []Entry{}
	for _, e := range m.rows {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

func (m *memoryRepo) List(_ context.Context, f ListFilters) ([]Entry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted(func(e Entry) bool {
		switch {
		case f.Paid != nil && e.Paid != *f.Paid:
			return false
		case !f.DueFrom.IsZero() && e.DueDate.Before(f.DueFrom):
			return false
		case !f.DueTo.IsZero() && e.DueDate.After(f.DueTo):
			return false
		case f.SeriesID != "" && (e.SeriesID == nil || *e.SeriesID != f.SeriesID):
			return false
		case f.SupplierID > 0 && (e.SupplierID == nil || *e.SupplierID != f.SupplierID):
			return false
		case f.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(f.Search)):
			return false
		}
		return true
	})
	start := f.Page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Page.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memoryRepo) Update(_ context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[e.ID]; !ok {
		return Entry{}, ErrNotFound
	}
	e.UpdatedAt = time.Now()
	m.rows[e.ID] = e
	return e, nil
}

func (m *memoryRepo) SetPaid(_ context.Context, id int64, paid bool, at time.Time) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e.Paid = paid
	e.PaidAt = nil
	if paid {
		e.PaidAt = &at
	}
	m.rows[id] = e
	return e, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryRepo) ListSeries(_ context.Context, seriesID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(func(e Entry) bool { return e.SeriesID != nil && *e.SeriesID == seriesID })
	sort.Slice(out, func(i, j int) bool { return *out[i].InstallmentNumberOfSeries < *out[j].InstallmentNumberOfSeries })
	return out, nil
}

func (m *memoryRepo) DeleteSeries(_ context.Context, seriesID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.rows {
		if e.SeriesID != nil && *e.SeriesID == seriesID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) Summary(_ context.Context, w SummaryWindow) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Summary{OpenTotal: decimal.Zero, OverdueTotal: decimal.Zero, DueSoonTotal: decimal.Zero, PaidThisMonthTotal: decimal.Zero}
	for _, e := range m.rows {
		if e.Paid {
			if e.PaidAt != nil && !e.PaidAt.Before(w.MonthStart) && e.PaidAt.Before(w.MonthEnd) {
				s.PaidThisMonthTotal = s.PaidThisMonthTotal.Add(e.Amount)
			}
			continue
		}
		s.OpenTotal = s.OpenTotal.Add(e.Amount)
		s.OpenCount++
		if e.DueDate.Before(w.Today) {
			s.OverdueTotal = s.OverdueTotal.Add(e.Amount)
			s.OverdueCount++
		} else if !e.DueDate.After(w.DueSoonEnd) {
			s.DueSoonTotal = s.DueSoonTotal.Add(e.Amount)
			s.DueSoonCount++
		}
	}
	return s, nil
}

func (m *memoryRepo) ListOpenDueBy(_ context.Context, until shared.Date) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(e Entry) bool { return !e.Paid && !e.DueDate.After(until) }), nil
}

func (m *memoryRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
