package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bizdesk/bizdesk/internal/catalog/products"
	"github.com/bizdesk/bizdesk/internal/numbering"
	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/sales/customers"
	"github.com/bizdesk/bizdesk/internal/settings"
	"github.com/bizdesk/bizdesk/internal/shared"
)

const (
	idempotencyModule = "quotes"
	// maxNumberAttempts bounds creation retries after a quote number collision.
	maxNumberAttempts = 3
)

var (
	ErrNotEditable       = fmt.Errorf("%w: quote can only be edited while draft or sent", httpx.ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", httpx.ErrConflict)
	ErrNumberExhausted   = fmt.Errorf("%w: could not allocate a unique quote number", httpx.ErrConflict)
)

// CompanyProvider supplies the settings frozen into new quotes.
type CompanyProvider interface {
	Company(ctx context.Context) (settings.Company, error)
}

// CustomerLookup resolves customer ids to their current name.
type CustomerLookup interface {
	Get(ctx context.Context, id int64) (customers.Customer, error)
}

// ProductLookup resolves item product ids for defaults.
type ProductLookup interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

// ServiceConfig carries the collaborators of Service.
type ServiceConfig struct {
	Logger      *slog.Logger
	Numbers     numbering.Allocator
	Company     CompanyProvider
	Customers   CustomerLookup
	Products    ProductLookup
	Audit       shared.AuditRecorder
	Idempotency shared.IdempotencyGuard
	Cache       shared.CacheInvalidator
	Metrics     *observability.BusinessMetrics
	Location    *time.Location
	Now         func() time.Time
}

// Service implements quote use cases.
type Service struct {
	repo        Repository
	logger      *slog.Logger
	numbers     numbering.Allocator
	company     CompanyProvider
	customers   CustomerLookup
	products    ProductLookup
	audit       shared.AuditRecorder
	idempotency shared.IdempotencyGuard
	cache       shared.CacheInvalidator
	metrics     *observability.BusinessMetrics
	loc         *time.Location
	now         func() time.Time
}

// NewService constructs the service.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	s := &Service{
		repo:        repo,
		logger:      cfg.Logger,
		numbers:     cfg.Numbers,
		company:     cfg.Company,
		customers:   cfg.Customers,
		products:    cfg.Products,
		audit:       cfg.Audit,
		idempotency: cfg.Idempotency,
		cache:       cfg.Cache,
		metrics:     cfg.Metrics,
		loc:         cfg.Location,
		now:         cfg.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.numbers == nil {
		s.numbers = numbering.CounterAllocator{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create prices the request, allocates the next number for today and
// inserts the quote with its items in one transaction. A number collision
// rolls everything back and retries with a fresh number.
func (s *Service) Create(ctx context.Context, caller shared.Caller, req CreateRequest, idempotencyKey string) (Quote, error) {
	company, err := s.company.Company(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("load company settings: %w", err)
	}
	now := s.now().In(s.loc)
	today := shared.Today(now, s.loc)

	q := Quote{
		Status:       StatusDraft,
		ValidUntil:   req.ValidUntil,
		PaymentTerms: strings.TrimSpace(req.PaymentTerms),
		Notes:        req.Notes,
		Company:      snapshotOf(company),
	}
	if q.ValidUntil.IsZero() {
		q.ValidUntil = today.AddDays(company.QuoteValidityDays)
	}
	if q.ValidUntil.Before(today) {
		return Quote{}, fmt.Errorf("%w: validUntil must not be in the past", httpx.ErrValidation)
	}
	if caller.UserID > 0 {
		id := caller.UserID
		q.SalespersonID = &id
		q.SalespersonName = caller.Name
	}
	if err := s.fill(ctx, &q, req); err != nil {
		return Quote{}, err
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Quote{}, fmt.Errorf("%w: idempotency key already used", httpx.ErrConflict)
			}
			return Quote{}, fmt.Errorf("check idempotency: %w", err)
		}
	}

	created, err := s.insertNumbered(ctx, q, now)
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			if delErr := s.idempotency.Delete(ctx, idempotencyKey, idempotencyModule); delErr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", idempotencyKey), slog.Any("error", delErr))
			}
		}
		return Quote{}, err
	}

	s.metrics.QuoteCreated()
	s.record(ctx, caller, "quote.created", created.ID, map[string]any{
		"quote_number": created.QuoteNumber,
		"cash_total":   created.CashTotal.StringFixed(2),
	})
	shared.Invalidate(ctx, s.cache, s.logger)
	return created, nil
}

func (s *Service) insertNumbered(ctx context.Context, q Quote, now time.Time) (Quote, error) {
	var created Quote
	for attempt := 1; ; attempt++ {
		err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			number, err := repo.AllocateNumber(ctx, s.numbers, now)
			if err != nil {
				return fmt.Errorf("allocate quote number: %w", err)
			}
			q.QuoteNumber = number
			created, err = repo.Insert(ctx, q)
			return err
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrNumberTaken) {
			return Quote{}, fmt.Errorf("insert quote: %w", err)
		}
		s.metrics.QuoteNumberConflict()
		s.logger.Warn("quote number collision",
			slog.String("quote_number", q.QuoteNumber),
			slog.Int("attempt", attempt))
		if attempt == maxNumberAttempts {
			return Quote{}, ErrNumberExhausted
		}
	}
}

// fill resolves the customer snapshot and items and computes the totals.
// It keeps q.Company, so updates price with the fee frozen at creation.
func (s *Service) fill(ctx context.Context, q *Quote, req CreateRequest) error {
	q.CustomerID = req.CustomerID
	q.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerID != nil {
		customer, err := s.customers.Get(ctx, *req.CustomerID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return fmt.Errorf("%w: customer %d does not exist", httpx.ErrValidation, *req.CustomerID)
			}
			return fmt.Errorf("load customer: %w", err)
		}
		q.CustomerName = customer.Name
	}

	items := make([]Item, 0, len(req.Items))
	for i, in := range req.Items {
		item := Item{
			ProductID:   in.ProductID,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
		}
		if in.UnitPrice != nil {
			item.UnitPrice = *in.UnitPrice
		}
		if in.ProductID != nil && (item.Description == "" || in.UnitPrice == nil) {
			product, err := s.products.Get(ctx, *in.ProductID)
			if err != nil {
				if errors.Is(err, httpx.ErrNotFound) {
					return fmt.Errorf("%w: item %d product %d does not exist", httpx.ErrValidation, i+1, *in.ProductID)
				}
				return fmt.Errorf("load product: %w", err)
			}
			if item.Description == "" {
				item.Description = product.Name
			}
			if in.UnitPrice == nil {
				item.UnitPrice = product.Price
			}
		}
		if item.Description == "" {
			return fmt.Errorf("%w: item %d needs a description or a product", httpx.ErrValidation, i+1)
		}
		items = append(items, item)
	}

	totals, err := ComputeTotals(items, req.Discount, q.Company.CardFeePercent)
	if err != nil {
		return err
	}
	q.Items = items
	q.Subtotal = totals.Subtotal
	q.Discount = totals.Discount
	q.CashTotal = totals.CashTotal
	q.CardTotal = totals.CardTotal
	return nil
}

// Get returns one quote with its items.
func (s *Service) Get(ctx context.Context, id int64) (Quote, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns the quote carrying a display number.
func (s *Service) GetByNumber(ctx context.Context, number string) (Quote, error) {
	return s.repo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
}

// List returns a filtered page of quote headers.
func (s *Service) List(ctx context.Context, filters ListFilters) (httpx.Page[Quote], error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return httpx.Page[Quote]{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, filters.Status)
	}
	filters.Search = strings.TrimSpace(filters.Search)
	items, total, err := s.repo.List(ctx, filters, s.loc)
	if err != nil {
		return httpx.Page[Quote]{}, fmt.Errorf("list quotes: %w", err)
	}
	return shared.PageOf(items, total, filters.Page), nil
}

// Update replaces customer, items and commercial terms of an editable quote
// and recomputes its totals.
func (s *Service) Update(ctx context.Context, caller shared.Caller, id int64, req UpdateRequest) (Quote, error) {
	var updated Quote
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return ErrNotEditable
		}
		current.PaymentTerms = strings.TrimSpace(req.PaymentTerms)
		current.Notes = req.Notes
		if !req.ValidUntil.IsZero() {
			current.ValidUntil = req.ValidUntil
		}
		if err := s.fill(ctx, &current, CreateRequest(req)); err != nil {
			return err
		}
		updated, err = repo.Update(ctx, current)
		return err
	})
	if err != nil {
		return Quote{}, err
	}
	s.record(ctx, caller, "quote.updated", id, nil)
	shared.Invalidate(ctx, s.cache, s.logger)
	return updated, nil
}

// ChangeStatus moves a quote along its lifecycle. Requesting the current
// status is a no-op.
func (s *Service) ChangeStatus(ctx context.Context, caller shared.Caller, id int64, next Status) (Quote, error) {
	if !next.Valid() {
		return Quote{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, next)
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	if current.Status == next {
		return current, nil
	}
	if !current.Status.CanTransition(next) {
		return Quote{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, next)
	}
	updated, err := s.repo.SetStatus(ctx, id, current.Status, next)
	if err != nil {
		return Quote{}, err
	}
	s.record(ctx, caller, "quote.status_changed", id, map[string]any{
		"from": string(current.Status),
		"to":   string(next),
	})
	shared.Invalidate(ctx, s.cache, s.logger)
	return updated, nil
}

// Delete hard-deletes a quote and its items.
func (s *Service) Delete(ctx context.Context, caller shared.Caller, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, caller, "quote.deleted", id, nil)
	shared.Invalidate(ctx, s.cache, s.logger)
	return nil
}

func (s *Service) record(ctx context.Context, caller shared.Caller, action string, id int64, meta map[string]any) {
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   action,
		Entity:   "quote",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

func snapshotOf(c settings.Company) CompanySnapshot {
	return CompanySnapshot{
		Name:           c.Name,
		Document:       c.Document,
		Address:        c.Address,
		Phone:          c.Phone,
		Email:          c.Email,
		Website:        c.Website,
		LogoURL:        c.LogoURL,
		CardFeePercent: c.CardFeePercent,
		QuoteFooter:    c.QuoteFooter,
	}
}
