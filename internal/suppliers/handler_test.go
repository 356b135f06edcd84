package suppliers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/shared"
)

type memoryRepo struct {
	nextID int64
	rows   map[int64]Supplier
}

func (m *memoryRepo) List(_ context.Context, f shared.ListFilters) ([]Supplier, int, error) {
	var out []Supplier
	key := shared.SearchKey(f.Search)
	for _, s := range m.rows {
		if key == "" || strings.Contains(shared.SearchKey(s.Name), key) {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Supplier, error) {
	s, ok := m.rows[id]
	if !ok {
		return Supplier{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) Create(_ context.Context, s Supplier) (Supplier, error) {
	m.nextID++
	s.ID = m.nextID
	m.rows[s.ID] = s
	return s, nil
}

func (m *memoryRepo) Update(_ context.Context, s Supplier) (Supplier, error) {
	if _, ok := m.rows[s.ID]; !ok {
		return Supplier{}, ErrNotFound
	}
	m.rows[s.ID] = s
	return s, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type countingCache struct{ calls int }

func (c *countingCache) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func TestSupplierCRUD(t *testing.T) {
	cache := &countingCache{}
	svc := NewService(&memoryRepo{rows: map[int64]Supplier{}}, nil, cache, nil)
	r := chi.NewRouter()
	r.Route("/suppliers", NewHandler(nil, svc).MountRoutes)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rr
	}

	rr := do(http.MethodPost, "/suppliers", `{"name":" Distribuidora Sul ","contactName":"Paulo"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created Supplier
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Distribuidora Sul", created.Name)
	assert.Equal(t, "Paulo", created.ContactName)

	rr = do(http.MethodPut, "/suppliers/1", `{"name":"Distribuidora Sul Ltda"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(http.MethodGet, "/suppliers?search=sul", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Distribuidora Sul Ltda")

	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/suppliers/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/suppliers/1", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/suppliers", `{"name":"X","unknown":1}`).Code)
	assert.Equal(t, 3, cache.calls)
}
