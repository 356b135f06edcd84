package quotes

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/catalog/products"
	"github.com/bizdesk/bizdesk/internal/numbering"
	"github.com/bizdesk/bizdesk/internal/sales/customers"
	"github.com/bizdesk/bizdesk/internal/settings"
	"github.com/bizdesk/bizdesk/internal/shared"
)

type memoryState struct {
	rows   map[int64]Quote
	nextID int64
}

func (s memoryState) clone() memoryState {
	rows := make(map[int64]Quote, len(s.rows))
	for k, v := range s.rows {
		rows[k] = v
	}
	return memoryState{rows: rows, nextID: s.nextID}
}

// memoryRepo is an in-memory Repository. Numbers are allocated the way the
// scan strategy does it. collisions makes the next N inserts fail as if
// another transaction had committed the same number.
type memoryRepo struct {
	mu         *sync.Mutex
	state      *memoryState
	collisions *int
	// afterGet runs with the lock held once Get has read a row. Tests use it
	// to change a quote behind the caller's back.
	afterGet func(rows map[int64]Quote, id int64)
}

func newMemoryRepo() *memoryRepo {
	collisions := 0
	return &memoryRepo{mu: &sync.Mutex{}, state: &memoryState{rows: map[int64]Quote{}}, collisions: &collisions}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	working := m.state.clone()
	m.mu.Unlock()

	tx := &memoryRepo{mu: &sync.Mutex{}, state: &working, collisions: m.collisions, afterGet: m.afterGet}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.mu.Lock()
	*m.state = working
	m.mu.Unlock()
	return nil
}

func (m *memoryRepo) AllocateNumber(_ context.Context, _ numbering.Allocator, date time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := numbering.Prefix(date) + "-"
	last := ""
	var lastSeq int64
	for _, q := range m.state.rows {
		if !strings.HasPrefix(q.QuoteNumber, prefix) {
			continue
		}
		seq, err := numbering.ParseSequence(q.QuoteNumber)
		if err != nil {
			return "", err
		}
		if seq > lastSeq {
			last, lastSeq = q.QuoteNumber, seq
		}
	}
	return numbering.Next(last, date)
}

func (m *memoryRepo) Insert(_ context.Context, q Quote) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if *m.collisions > 0 {
		*m.collisions--
		return Quote{}, ErrNumberTaken
	}
	for _, existing := range m.state.rows {
		if existing.QuoteNumber == q.QuoteNumber {
			return Quote{}, ErrNumberTaken
		}
	}
	m.state.nextID++
	q.ID = m.state.nextID
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	items := make([]Item, len(q.Items))
	for i, it := range q.Items {
		it.ID = q.ID*1000 + int64(i)
		items[i] = it
	}
	q.Items = items
	m.state.rows[q.ID] = q
	return q, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.state.rows[id]
	if !ok {
		return Quote{}, ErrNotFound
	}
	if m.afterGet != nil {
		m.afterGet(m.state.rows, id)
	}
	return q, nil
}

func (m *memoryRepo) GetByNumber(_ context.Context, number string) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.state.rows {
		if q.QuoteNumber == number {
			return q, nil
		}
	}
	return Quote{}, ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, f ListFilters, _ *time.Location) ([]Quote, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Quote
	for _, q := range m.state.rows {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if f.CustomerID > 0 && (q.CustomerID == nil || *q.CustomerID != f.CustomerID) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(q.QuoteNumber+" "+q.CustomerName), strings.ToLower(f.Search)) {
			continue
		}
		q.Items = nil
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, q Quote) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.state.rows[q.ID]
	if !ok || stored.Status != q.Status || !stored.Status.Editable() {
		return Quote{}, ErrStatusChanged
	}
	m.state.rows[q.ID] = q
	return q, nil
}

func (m *memoryRepo) SetStatus(_ context.Context, id int64, from, to Status) (Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.state.rows[id]
	if !ok || q.Status != from {
		return Quote{}, ErrStatusChanged
	}
	q.Status = to
	m.state.rows[id] = q
	return q, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.rows, id)
	return nil
}

type fixedCompany settings.Company

func (c fixedCompany) Company(context.Context) (settings.Company, error) {
	return settings.Company(c), nil
}

type customerMap map[int64]string

func (c customerMap) Get(_ context.Context, id int64) (customers.Customer, error) {
	name, ok := c[id]
	if !ok {
		return customers.Customer{}, customers.ErrNotFound
	}
	return customers.Customer{ID: id, Name: name}, nil
}

type productMap map[int64]products.Product

func (p productMap) Get(_ context.Context, id int64) (products.Product, error) {
	product, ok := p[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	return product, nil
}

type idempotencyMemory struct {
	keys map[string]bool
}

func (i *idempotencyMemory) CheckAndInsert(_ context.Context, key, module string) error {
	if i.keys[module+"/"+key] {
		return shared.ErrIdempotencyConflict
	}
	i.keys[module+"/"+key] = true
	return nil
}

func (i *idempotencyMemory) Delete(_ context.Context, key, module string) error {
	delete(i.keys, module+"/"+key)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
