package customers

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) (httpx.Page[Customer], error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return httpx.Page[Customer]{}, fmt.Errorf("list customers: %w", err)
	}
	return shared.PageOf(items, total, filters.Page), nil
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, caller shared.Caller, req Request) (Customer, error) {
	customer := fromRequest(req)
	if err := s.validate(customer); err != nil {
		return Customer{}, err
	}
	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	s.after(ctx, caller, "customer.created", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, caller shared.Caller, id int64, req Request) (Customer, error) {
	customer := fromRequest(req)
	customer.ID = id
	if err := s.validate(customer); err != nil {
		return Customer{}, err
	}
	updated, err := s.repo.Update(ctx, customer)
	if err != nil {
		return Customer{}, err
	}
	s.after(ctx, caller, "customer.updated", id)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, caller shared.Caller, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.after(ctx, caller, "customer.deleted", id)
	return nil
}

func (s *Service) after(ctx context.Context, caller shared.Caller, action string, id int64) {
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   action,
		Entity:   "customer",
		EntityID: strconv.FormatInt(id, 10),
	})
	shared.Invalidate(ctx, s.cache, s.logger)
}

func fromRequest(req Request) Customer {
	return Customer{
		Name:     strings.TrimSpace(req.Name),
		Document: strings.TrimSpace(req.Document),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
		Address:  strings.TrimSpace(req.Address),
		City:     strings.TrimSpace(req.City),
		State:    strings.ToUpper(strings.TrimSpace(req.State)),
		Notes:    req.Notes,
	}
}
