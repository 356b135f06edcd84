package payables

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

const idempotencyModule = "accounts_payable"

// ServiceConfig carries the optional collaborators of Service.
type ServiceConfig struct {
	Logger      *slog.Logger
	Audit       shared.AuditRecorder
	Idempotency shared.IdempotencyGuard
	Cache       shared.CacheInvalidator
	Metrics     *observability.BusinessMetrics
	Location    *time.Location
	DueSoonDays int
	Now         func() time.Time
	NewSeriesID func() string
}

// Service implements accounts payable use cases.
type Service struct {
	repo        Repository
	logger      *slog.Logger
	audit       shared.AuditRecorder
	idempotency shared.IdempotencyGuard
	cache       shared.CacheInvalidator
	metrics     *observability.BusinessMetrics
	loc         *time.Location
	dueSoonDays int
	now         func() time.Time
	newSeriesID func() string
}

// NewService constructs the service.
func NewService(repo Repository, cfg ServiceConfig) *Service {
	s := &Service{
		repo:        repo,
		logger:      cfg.Logger,
		audit:       cfg.Audit,
		idempotency: cfg.Idempotency,
		cache:       cfg.Cache,
		metrics:     cfg.Metrics,
		loc:         cfg.Location,
		dueSoonDays: cfg.DueSoonDays,
		now:         cfg.Now,
		newSeriesID: cfg.NewSeriesID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.dueSoonDays <= 0 {
		s.dueSoonDays = 7
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newSeriesID == nil {
		s.newSeriesID = uuid.NewString
	}
	return s
}

// Create persists a single entry, or a whole installment series in one
// transaction. A non-empty idempotency key makes replays fail with a conflict.
func (s *Service) Create(ctx context.Context, caller shared.Caller, req CreateRequest, idempotencyKey string) (CreateResponse, error) {
	var createdBy *int64
	if caller.UserID > 0 {
		id := caller.UserID
		createdBy = &id
	}
	seriesReq := req.SeriesRequest(createdBy)
	var seriesID string
	if seriesReq.IsSeries() {
		seriesID = s.newSeriesID()
	}
	planned, err := PlanSeries(seriesReq, seriesID)
	if err != nil {
		return CreateResponse{}, err
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return CreateResponse{}, fmt.Errorf("%w: idempotency key already used", httpx.ErrConflict)
			}
			return CreateResponse{}, fmt.Errorf("check idempotency: %w", err)
		}
	}

	created, err := s.persist(ctx, planned)
	if err != nil {
		if idempotencyKey != "" && s.idempotency != nil {
			if delErr := s.idempotency.Delete(ctx, idempotencyKey, idempotencyModule); delErr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", idempotencyKey), slog.Any("error", delErr))
			}
		}
		return CreateResponse{}, err
	}

	resp := CreateResponse{Entries: created}
	if seriesID != "" {
		resp.SeriesID = &seriesID
		s.metrics.SeriesGenerated(len(created))
		shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
			ActorID:  caller.UserID,
			Action:   "accounts_payable.series_created",
			Entity:   "accounts_payable_series",
			EntityID: seriesID,
			Meta:     map[string]any{"installments": len(created), "total": seriesReq.TotalAmount.Round(2).StringFixed(2)},
		})
	} else {
		shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
			ActorID:  caller.UserID,
			Action:   "accounts_payable.created",
			Entity:   "accounts_payable",
			EntityID: strconv.FormatInt(created[0].ID, 10),
		})
	}
	shared.Invalidate(ctx, s.cache, s.logger)
	return resp, nil
}

func (s *Service) persist(ctx context.Context, planned []Entry) ([]Entry, error) {
	if len(planned) == 1 {
		entry, err := s.repo.Insert(ctx, planned[0])
		if err != nil {
			return nil, fmt.Errorf("insert entry: %w", err)
		}
		return []Entry{entry}, nil
	}
	created := make([]Entry, 0, len(planned))
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, entry := range planned {
			inserted, err := repo.Insert(ctx, entry)
			if err != nil {
				return fmt.Errorf("insert installment %d/%d: %w", *entry.InstallmentNumberOfSeries, len(planned), err)
			}
			created = append(created, inserted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id int64) (Entry, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of entries.
func (s *Service) List(ctx context.Context, filters ListFilters) (httpx.Page[Entry], error) {
	filters.Search = strings.TrimSpace(filters.Search)
	entries, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return httpx.Page[Entry]{}, fmt.Errorf("list accounts payable: %w", err)
	}
	p := shared.NewPagination(filters.Page.Page, filters.Page.PerPage, total)
	return httpx.Page[Entry]{Items: entries, Total: total, Page: p.Page, PerPage: p.PerPage, TotalPages: p.TotalPages}, nil
}

// Update edits one entry, including a single member of a series.
func (s *Service) Update(ctx context.Context, caller shared.Caller, id int64, req UpdateRequest) (Entry, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Entry{}, fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return Entry{}, fmt.Errorf("%w: amount must be greater than zero", httpx.ErrValidation)
	}
	if req.DueDate.IsZero() {
		return Entry{}, fmt.Errorf("%w: due date is required", httpx.ErrValidation)
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	existing.Name = name
	existing.Amount = amount
	existing.DueDate = req.DueDate
	existing.Notes = req.Notes
	existing.Category = strings.TrimSpace(req.Category)
	existing.SupplierID = req.SupplierID
	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return Entry{}, fmt.Errorf("update entry: %w", err)
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   "accounts_payable.updated",
		Entity:   "accounts_payable",
		EntityID: strconv.FormatInt(id, 10),
	})
	shared.Invalidate(ctx, s.cache, s.logger)
	return updated, nil
}

// MarkPaid sets or clears the paid flag; paidAt follows the flag.
func (s *Service) MarkPaid(ctx context.Context, caller shared.Caller, id int64, paid bool) (Entry, error) {
	updated, err := s.repo.SetPaid(ctx, id, paid, s.now())
	if err != nil {
		return Entry{}, err
	}
	action := "accounts_payable.paid"
	if !paid {
		action = "accounts_payable.unpaid"
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   action,
		Entity:   "accounts_payable",
		EntityID: strconv.FormatInt(id, 10),
	})
	shared.Invalidate(ctx, s.cache, s.logger)
	return updated, nil
}

// Delete removes one entry. Siblings of a series member are kept.
func (s *Service) Delete(ctx context.Context, caller shared.Caller, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   "accounts_payable.deleted",
		Entity:   "accounts_payable",
		EntityID: strconv.FormatInt(id, 10),
	})
	shared.Invalidate(ctx, s.cache, s.logger)
	return nil
}

// Series returns every member of a series ordered by installment number.
func (s *Service) Series(ctx context.Context, seriesID string) (SeriesResponse, error) {
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		return SeriesResponse{}, fmt.Errorf("%w: series id is required", httpx.ErrValidation)
	}
	entries, err := s.repo.ListSeries(ctx, seriesID)
	if err != nil {
		return SeriesResponse{}, fmt.Errorf("list series: %w", err)
	}
	if len(entries) == 0 {
		return SeriesResponse{}, ErrNotFound
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return SeriesResponse{SeriesID: seriesID, Total: total, Entries: entries}, nil
}

// DeleteSeries removes all rows sharing seriesID with one statement.
func (s *Service) DeleteSeries(ctx context.Context, caller shared.Caller, seriesID string) (DeleteSeriesResponse, error) {
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		return DeleteSeriesResponse{}, fmt.Errorf("%w: series id is required", httpx.ErrValidation)
	}
	deleted, err := s.repo.DeleteSeries(ctx, seriesID)
	if err != nil {
		return DeleteSeriesResponse{}, fmt.Errorf("delete series: %w", err)
	}
	if deleted == 0 {
		return DeleteSeriesResponse{}, ErrNotFound
	}
	s.metrics.SeriesDeleted()
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   "accounts_payable.series_deleted",
		Entity:   "accounts_payable_series",
		EntityID: seriesID,
		Meta:     map[string]any{"deleted": deleted},
	})
	shared.Invalidate(ctx, s.cache, s.logger)
	return DeleteSeriesResponse{SeriesID: seriesID, Deleted: deleted}, nil
}

// Summary aggregates open, overdue and soon-due obligations as of today in
// the business calendar.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	today := shared.Today(s.now(), s.loc)
	monthStart := today.MonthStart()
	window := SummaryWindow{
		Today:      today,
		DueSoonEnd: today.AddDays(s.dueSoonDays),
		MonthStart: monthStart.In(s.loc),
		MonthEnd:   monthStart.AddMonthsClamped(1).In(s.loc),
	}
	summary, err := s.repo.Summary(ctx, window)
	if err != nil {
		return Summary{}, fmt.Errorf("summarise accounts payable: %w", err)
	}
	summary.DueSoonDays = s.dueSoonDays
	return summary, nil
}

// DueWithin lists unpaid entries due up to days from today, overdue ones
// included.
func (s *Service) DueWithin(ctx context.Context, days int) ([]Entry, error) {
	today := shared.Today(s.now(), s.loc)
	entries, err := s.repo.ListOpenDueBy(ctx, today.AddDays(days))
	if err != nil {
		return nil, fmt.Errorf("list due entries: %w", err)
	}
	return entries, nil
}
