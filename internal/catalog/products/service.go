package products

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

const defaultUnit = "un"

type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	cache  shared.CacheInvalidator
	logger *slog.Logger
}

func NewService(repo Repository, audit shared.AuditRecorder, cache shared.CacheInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, cache: cache, logger: logger}
}

func (s *Service) List(ctx context.Context, filters ListFilters) (httpx.Page[Product], error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return httpx.Page[Product]{}, fmt.Errorf("list products: %w", err)
	}
	return shared.PageOf(items, total, filters.Page), nil
}

// Get is also used by quotes to default item descriptions and prices.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, caller shared.Caller, req Request) (Product, error) {
	product := fromRequest(req)
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.after(ctx, caller, "product.created", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, caller shared.Caller, id int64, req Request) (Product, error) {
	product := fromRequest(req)
	product.ID = id
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.after(ctx, caller, "product.updated", id)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, caller shared.Caller, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.after(ctx, caller, "product.deleted", id)
	return nil
}

func (s *Service) after(ctx context.Context, caller shared.Caller, action string, id int64) {
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   action,
		Entity:   "product",
		EntityID: strconv.FormatInt(id, 10),
	})
	shared.Invalidate(ctx, s.cache, s.logger)
}

func fromRequest(req Request) Product {
	p := Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Unit:        strings.TrimSpace(req.Unit),
		Price:       req.Price.Round(2),
		Cost:        req.Cost.Round(2),
		CategoryID:  req.CategoryID,
		SupplierID:  req.SupplierID,
		Active:      req.Active == nil || *req.Active,
	}
	if sku := strings.TrimSpace(req.SKU); sku != "" {
		p.SKU = &sku
	}
	if p.Unit == "" {
		p.Unit = defaultUnit
	}
	return p
}
