package categories

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) (httpx.Page[Category], error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return httpx.Page[Category]{}, fmt.Errorf("list categories: %w", err)
	}
	return shared.PageOf(items, total, filters.Page), nil
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, caller shared.Caller, req Request) (Category, error) {
	category := fromRequest(req)
	if err := s.validate(category); err != nil {
		return Category{}, err
	}
	created, err := s.repo.Create(ctx, category)
	if err != nil {
		return Category{}, err
	}
	s.record(ctx, caller, "category.created", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, caller shared.Caller, id int64, req Request) (Category, error) {
	category := fromRequest(req)
	category.ID = id
	if err := s.validate(category); err != nil {
		return Category{}, err
	}
	updated, err := s.repo.Update(ctx, category)
	if err != nil {
		return Category{}, err
	}
	s.record(ctx, caller, "category.updated", id)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, caller shared.Caller, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, caller, "category.deleted", id)
	shared.Invalidate(ctx, s.cache, s.logger)
	return nil
}

func (s *Service) record(ctx context.Context, caller shared.Caller, action string, id int64) {
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   action,
		Entity:   "category",
		EntityID: strconv.FormatInt(id, 10),
	})
}

func fromRequest(req Request) Category {
	return Category{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
}
