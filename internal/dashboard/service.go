package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/payables"
	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// PayablesSummarizer provides the accounts payable block of the summary.
type PayablesSummarizer interface {
	Summary(ctx context.Context) (payables.Summary, error)
}

// Service builds dashboard read models through the cache.
type Service struct {
	repo     Repository
	payables PayablesSummarizer
	cache    *Cache
	metrics  *observability.BusinessMetrics
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

// ServiceConfig carries the optional collaborators of Service.
type ServiceConfig struct {
	Cache    *Cache
	Metrics  *observability.BusinessMetrics
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

// NewService wires a Repository and the payables summary with a cache.
func NewService(repo Repository, payables PayablesSummarizer, cfg ServiceConfig) *Service {
	s := &Service{
		repo:     repo,
		payables: payables,
		cache:    cfg.Cache,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		loc:      cfg.Location,
		now:      cfg.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Summary returns the cached landing page figures for today.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	today := shared.Today(s.now(), s.loc)
	key, err := s.cache.BuildKey(ctx, "summary", today.String())
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard cache key: %w", err)
	}
	var out Summary
	hit, err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.computeSummary(ctx, today)
	})
	if err != nil {
		return Summary{}, fmt.Errorf("dashboard summary: %w", err)
	}
	s.metrics.DashboardLookup(hit)
	return out, nil
}

func (s *Service) computeSummary(ctx context.Context, today shared.Date) (Summary, error) {
	counts, err := s.repo.QuoteStatusCounts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("quote status counts: %w", err)
	}
	month := today.MonthStart()
	stats, err := s.repo.QuoteRanges(ctx, []Range{{
		Start: month.In(s.loc),
		End:   month.AddMonthsClamped(1).In(s.loc),
	}})
	if err != nil {
		return Summary{}, fmt.Errorf("quote month stats: %w", err)
	}
	customers, products, err := s.repo.EntityCounts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("entity counts: %w", err)
	}
	ap, err := s.payables.Summary(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("payables summary: %w", err)
	}
	out := Summary{
		QuotesByStatus: counts,
		Payables:       ap,
		CustomerCount:  customers,
		ProductCount:   products,
		GeneratedAt:    s.now().UTC(),
	}
	if len(stats) == 1 {
		out.QuotesThisMonth = stats[0].QuoteCount
		out.AcceptedValueThisMonth = stats[0].AcceptedValue
	}
	return out, nil
}

// Monthly returns one point per calendar month, oldest first, ending with
// the current month.
func (s *Service) Monthly(ctx context.Context, months int) ([]MonthlyPoint, error) {
	if months < 1 || months > MaxMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", httpx.ErrValidation, MaxMonths)
	}
	current := shared.Today(s.now(), s.loc).MonthStart()
	key, err := s.cache.BuildKey(ctx, "monthly", current.String(), strconv.Itoa(months))
	if err != nil {
		return nil, fmt.Errorf("dashboard cache key: %w", err)
	}
	var out []MonthlyPoint
	hit, err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.computeMonthly(ctx, current, months)
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard monthly: %w", err)
	}
	s.metrics.DashboardLookup(hit)
	return out, nil
}

func (s *Service) computeMonthly(ctx context.Context, current shared.Date, months int) ([]MonthlyPoint, error) {
	ranges := make([]Range, months)
	labels := make([]string, months)
	for i := 0; i < months; i++ {
		start := current.AddMonthsClamped(i - months + 1)
		ranges[i] = Range{Start: start.In(s.loc), End: start.AddMonthsClamped(1).In(s.loc)}
		labels[i] = start.Time().Format("2006-01")
	}
	stats, err := s.repo.QuoteRanges(ctx, ranges)
	if err != nil {
		return nil, err
	}
	points := make([]MonthlyPoint, months)
	for i := range points {
		points[i] = MonthlyPoint{Month: labels[i]}
		if i < len(stats) {
			points[i].QuoteCount = stats[i].QuoteCount
			points[i].AcceptedValue = stats[i].AcceptedValue
		}
	}
	return points, nil
}

// Warm recomputes today's summary into the cache.
func (s *Service) Warm(ctx context.Context) error {
	if _, err := s.Summary(ctx); err != nil {
		return err
	}
	_, err := s.Monthly(ctx, 12)
	return err
}
