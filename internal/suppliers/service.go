package suppliers

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) (httpx.Page[Supplier], error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return httpx.Page[Supplier]{}, fmt.Errorf("list suppliers: %w", err)
	}
	return shared.PageOf(items, total, filters.Page), nil
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, caller shared.Caller, req Request) (Supplier, error) {
	supplier := fromRequest(req)
	if err := s.validate(supplier); err != nil {
		return Supplier{}, err
	}
	created, err := s.repo.Create(ctx, supplier)
	if err != nil {
		return Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	s.after(ctx, caller, "supplier.created", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, caller shared.Caller, id int64, req Request) (Supplier, error) {
	supplier := fromRequest(req)
	supplier.ID = id
	if err := s.validate(supplier); err != nil {
		return Supplier{}, err
	}
	updated, err := s.repo.Update(ctx, supplier)
	if err != nil {
		return Supplier{}, err
	}
	s.after(ctx, caller, "supplier.updated", id)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, caller shared.Caller, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.after(ctx, caller, "supplier.deleted", id)
	return nil
}

func (s *Service) after(ctx context.Context, caller shared.Caller, action string, id int64) {
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   action,
		Entity:   "supplier",
		EntityID: strconv.FormatInt(id, 10),
	})
	shared.Invalidate(ctx, s.cache, s.logger)
}

func fromRequest(req Request) Supplier {
	return Supplier{
		Name:        strings.TrimSpace(req.Name),
		Document:    strings.TrimSpace(req.Document),
		ContactName: strings.TrimSpace(req.ContactName),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		Notes:       req.Notes,
	}
}
