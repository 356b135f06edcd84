package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/payables"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

type mockRepo struct {
	mu          sync.Mutex
	statusCalls int
	ranges      [][]Range
}

func (m *mockRepo) QuoteStatusCounts(context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	return map[string]int{"draft": 2, "accepted": 1}, nil
}

func (m *mockRepo) QuoteRanges(_ context.Context, ranges []Range) ([]RangeStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranges = append(m.ranges, ranges)
	out := make([]RangeStats, len(ranges))
	for i := range out {
		out[i] = RangeStats{QuoteCount: i + 1, AcceptedValue: decimal.NewFromInt(int64(100 * (i + 1)))}
	}
	return out, nil
}

func (m *mockRepo) EntityCounts(context.Context) (int, int, error) {
	return 4, 9, nil
}

type stubPayables struct{}

func (stubPayables) Summary(context.Context) (payables.Summary, error) {
	return payables.Summary{OpenCount: 3, OpenTotal: decimal.RequireFromString("150.50")}, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	loc := time.FixedZone("BRT", -3*60*60)
	svc := NewService(repo, stubPayables{}, ServiceConfig{
		Cache:    cache,
		Location: loc,
		Now:      func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, loc) },
	})
	return svc, cache
}

func TestSummaryIsCachedUntilInvalidated(t *testing.T) {
	repo := &mockRepo{}
	svc, cache := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.QuotesByStatus["draft"])
	assert.Equal(t, 1, first.QuotesThisMonth)
	assert.Equal(t, "100", first.AcceptedValueThisMonth.String())
	assert.Equal(t, 4, first.CustomerCount)
	assert.Equal(t, 9, first.ProductCount)
	assert.Equal(t, 3, first.Payables.OpenCount)

	require.Len(t, repo.ranges, 1)
	loc := time.FixedZone("BRT", -3*60*60)
	assert.True(t, repo.ranges[0][0].Start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, loc)))
	assert.True(t, repo.ranges[0][0].End.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, loc)))

	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.statusCalls)

	require.NoError(t, cache.Invalidate(ctx))
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.statusCalls)
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	repo := &mockRepo{}
	svc, _ := newTestService(t, repo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Summary(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, repo.statusCalls, 8)
	assert.GreaterOrEqual(t, repo.statusCalls, 1)
}

func TestMonthlyBuildsCalendarMonths(t *testing.T) {
	repo := &mockRepo{}
	svc, _ := newTestService(t, repo)

	points, err := svc.Monthly(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, []string{points[0].Month, points[1].Month, points[2].Month})
	assert.Equal(t, 3, points[2].QuoteCount)
	assert.Equal(t, "300", points[2].AcceptedValue.String())

	_, err = svc.Monthly(context.Background(), 0)
	require.ErrorIs(t, err, httpx.ErrValidation)
	_, err = svc.Monthly(context.Background(), MaxMonths+1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestNilCacheComputesDirectly(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, stubPayables{}, ServiceConfig{})
	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.statusCalls)
}

func TestHandler(t *testing.T) {
	svc, _ := newTestService(t, &mockRepo{})
	r := chi.NewRouter()
	r.Route("/dashboard", NewHandler(nil, svc).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/monthly?months=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var points []MonthlyPoint
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &points))
	assert.Len(t, points, 2)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/monthly?months=x", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/summary", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
