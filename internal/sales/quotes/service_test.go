package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/catalog/products"
	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/settings"
	"github.com/bizdesk/bizdesk/internal/shared"
)

type fixture struct {
	repo        *memoryRepo
	svc         *Service
	now         time.Time
	idempotency *idempotencyMemory
}

var seller = shared.Caller{UserID: 3, Name: "Carla", Role: shared.RoleSeller}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc := time.FixedZone("BRT", -3*60*60)
	f := &fixture{
		repo:        newMemoryRepo(),
		now:         time.Date(2024, 6, 15, 10, 0, 0, 0, loc),
		idempotency: &idempotencyMemory{keys: map[string]bool{}},
	}
	f.svc = NewService(f.repo, ServiceConfig{
		Company: fixedCompany(settings.Company{
			Name:              "Loja Exemplo",
			CardFeePercent:    dec("3.5"),
			QuoteValidityDays: 10,
		}),
		Customers: customerMap{1: "Maria Souza"},
		Products: productMap{
			7: products.Product{ID: 7, Name: "Cimento CP-II 50kg", Price: dec("38.90")},
		},
		Idempotency: f.idempotency,
		Metrics:     observability.NewBusinessMetrics(prometheus.NewRegistry()),
		Location:    loc,
		Now:         func() time.Time { return f.now },
	})
	return f
}

func simpleRequest() CreateRequest {
	return CreateRequest{
		CustomerName: "Balcão",
		Items:        []ItemRequest{{Description: "Areia", Quantity: dec("2"), UnitPrice: decPtr("10")}},
	}
}

func TestCreateNumbersPerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, seller, simpleRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, "ORC-240615-001", first.QuoteNumber)

	second, err := f.svc.Create(ctx, seller, simpleRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, "ORC-240615-002", second.QuoteNumber)

	f.now = f.now.Add(24 * time.Hour)
	third, err := f.svc.Create(ctx, seller, simpleRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, "ORC-240616-001", third.QuoteNumber)
}

func TestCreateUsesBusinessCalendar(t *testing.T) {
	f := newFixture(t)
	// 01:30 UTC on the 16th is still the 15th in UTC-3.
	f.now = time.Date(2024, 6, 16, 1, 30, 0, 0, time.UTC)

	q, err := f.svc.Create(context.Background(), seller, simpleRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, "ORC-240615-001", q.QuoteNumber)
	assert.Equal(t, "2024-06-25", q.ValidUntil.String())
}

func TestCreateComputesTotalsAndSnapshots(t *testing.T) {
	f := newFixture(t)
	customerID := int64(1)
	productID := int64(7)

	q, err := f.svc.Create(context.Background(), seller, CreateRequest{
		CustomerID: &customerID,
		Items: []ItemRequest{
			{ProductID: &productID, Quantity: dec("3")},
			{Description: "Frete", Quantity: dec("1"), UnitPrice: decPtr("25.005")},
		},
		Discount: dec("6.71"),
	}, "")
	require.NoError(t, err)

	require.Len(t, q.Items, 2)
	assert.Equal(t, "Cimento CP-II 50kg", q.Items[0].Description)
	assert.Equal(t, "116.70", q.Items[0].Total.StringFixed(2))
	assert.Equal(t, "25.01", q.Items[1].UnitPrice.StringFixed(2))
	assert.Equal(t, 2, q.Items[1].Position)
	assert.Equal(t, "141.71", q.Subtotal.StringFixed(2))
	assert.Equal(t, "135.00", q.CashTotal.StringFixed(2))
	assert.Equal(t, "139.73", q.CardTotal.StringFixed(2))

	assert.Equal(t, "Maria Souza", q.CustomerName)
	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, "Carla", q.SalespersonName)
	require.NotNil(t, q.SalespersonID)
	assert.Equal(t, int64(3), *q.SalespersonID)
	assert.Equal(t, "Loja Exemplo", q.Company.Name)
	assert.Equal(t, "3.5", q.Company.CardFeePercent.String())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missingCustomer := int64(99)
	missingProduct := int64(42)

	cases := map[string]CreateRequest{
		"unknown customer": {CustomerID: &missingCustomer, Items: simpleRequest().Items},
		"unknown product":  {Items: []ItemRequest{{ProductID: &missingProduct, Quantity: dec("1")}}},
		"no description":   {Items: []ItemRequest{{Quantity: dec("1"), UnitPrice: decPtr("1")}}},
		"zero quantity":    {Items: []ItemRequest{{Description: "x", Quantity: dec("0"), UnitPrice: decPtr("1")}}},
		"discount too big": {Items: simpleRequest().Items, Discount: dec("20.01")},
		"expired":          {Items: simpleRequest().Items, ValidUntil: shared.NewDate(2024, 6, 14)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, seller, req, "")
			require.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
	assert.Empty(t, f.repo.state.rows)
}

func TestCreateRetriesNumberCollisions(t *testing.T) {
	f := newFixture(t)
	*f.repo.collisions = 2

	q, err := f.svc.Create(context.Background(), seller, simpleRequest(), "")
	require.NoError(t, err)
	assert.Equal(t, "ORC-240615-001", q.QuoteNumber)

	*f.repo.collisions = maxNumberAttempts
	_, err = f.svc.Create(context.Background(), seller, simpleRequest(), "key-1")
	require.ErrorIs(t, err, ErrNumberExhausted)
	assert.Equal(t, 409, httpx.StatusFor(err))
	assert.Len(t, f.repo.state.rows, 1)
	assert.Empty(t, f.idempotency.keys, "failed create releases its idempotency key")
}

func TestCreateIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, seller, simpleRequest(), "abc")
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, seller, simpleRequest(), "abc")
	require.ErrorIs(t, err, httpx.ErrConflict)
	assert.Len(t, f.repo.state.rows, 1)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, seller, simpleRequest(), "")
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(ctx, seller, q.ID, StatusConvertedToOrder)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.ChangeStatus(ctx, seller, q.ID, Status("archived"))
	require.ErrorIs(t, err, httpx.ErrValidation)

	sent, err := f.svc.ChangeStatus(ctx, seller, q.ID, StatusSent)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)

	same, err := f.svc.ChangeStatus(ctx, seller, q.ID, StatusSent)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, same.Status)

	_, err = f.svc.ChangeStatus(ctx, seller, q.ID, StatusAccepted)
	require.NoError(t, err)
	converted, err := f.svc.ChangeStatus(ctx, seller, q.ID, StatusConvertedToOrder)
	require.NoError(t, err)
	assert.Equal(t, StatusConvertedToOrder, converted.Status)

	_, err = f.svc.ChangeStatus(ctx, seller, q.ID, StatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateRecomputesWithFrozenFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, seller, simpleRequest(), "")
	require.NoError(t, err)

	f.svc.company = fixedCompany(settings.Company{CardFeePercent: dec("10")})
	updated, err := f.svc.Update(ctx, seller, q.ID, UpdateRequest{
		CustomerName: "Balcão",
		Items:        []ItemRequest{{Description: "Areia", Quantity: dec("10"), UnitPrice: decPtr("10")}},
		Notes:        "entrega sábado",
	})
	require.NoError(t, err)
	assert.Equal(t, q.QuoteNumber, updated.QuoteNumber)
	assert.Equal(t, "100.00", updated.CashTotal.StringFixed(2))
	assert.Equal(t, "103.50", updated.CardTotal.StringFixed(2))
	assert.Equal(t, "entrega sábado", updated.Notes)
	assert.Equal(t, q.ValidUntil, updated.ValidUntil)

	_, err = f.svc.ChangeStatus(ctx, seller, q.ID, StatusAccepted)
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, seller, q.ID, UpdateRequest(simpleRequest()))
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestUpdateRejectsQuoteAcceptedMeanwhile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, seller, simpleRequest(), "")
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, seller, q.ID, StatusSent)
	require.NoError(t, err)

	f.repo.afterGet = func(rows map[int64]Quote, id int64) {
		accepted := rows[id]
		accepted.Status = StatusAccepted
		rows[id] = accepted
	}
	_, err = f.svc.Update(ctx, seller, q.ID, UpdateRequest{
		CustomerName: "Balcão",
		Items:        []ItemRequest{{Description: "Brita", Quantity: dec("5"), UnitPrice: decPtr("80")}},
	})
	require.ErrorIs(t, err, ErrStatusChanged)
	require.ErrorIs(t, err, httpx.ErrConflict)

	f.repo.afterGet = nil
	stored, err := f.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.CashTotal, stored.CashTotal)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Areia", stored.Items[0].Description)
}

func TestDeleteAndLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, seller, simpleRequest(), "")
	require.NoError(t, err)

	found, err := f.svc.GetByNumber(ctx, " orc-240615-001 ")
	require.NoError(t, err)
	assert.Equal(t, q.ID, found.ID)

	require.NoError(t, f.svc.Delete(ctx, seller, q.ID))
	require.ErrorIs(t, f.svc.Delete(ctx, seller, q.ID), httpx.ErrNotFound)
	_, err = f.svc.Get(ctx, q.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestComputeTotalsExample(t *testing.T) {
	items := []Item{{Quantity: dec("3"), UnitPrice: dec("33.333")}}
	totals, err := ComputeTotals(items, dec("9.99"), dec("3.5"))
	require.NoError(t, err)
	assert.Equal(t, "99.99", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "90.00", totals.CashTotal.StringFixed(2))
	assert.Equal(t, "93.15", totals.CardTotal.StringFixed(2))
}
