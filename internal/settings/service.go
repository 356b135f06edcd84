package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// DefaultCompany is returned before anyone saved the settings.
func DefaultCompany() Company {
	return Company{CardFeePercent: decimal.Zero, QuoteValidityDays: 15}
}

// Service manages company settings.
type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService constructs the service.
func NewService(repo Repository, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Company returns the current settings.
func (s *Service) Company(ctx context.Context) (Company, error) {
	c, err := s.repo.GetCompany(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultCompany(), nil
		}
		return Company{}, fmt.Errorf("load company settings: %w", err)
	}
	return c, nil
}

// UpdateCompany replaces the settings.
func (s *Service) UpdateCompany(ctx context.Context, caller shared.Caller, req UpdateCompanyRequest) (Company, error) {
	fee := req.CardFeePercent.Round(2)
	if fee.IsNegative() || fee.GreaterThan(hundred) {
		return Company{}, fmt.Errorf("%w: cardFeePercent must be between 0 and 100", httpx.ErrValidation)
	}
	updated, err := s.repo.UpdateCompany(ctx, Company{
		Name:              strings.TrimSpace(req.Name),
		Document:          strings.TrimSpace(req.Document),
		Address:           strings.TrimSpace(req.Address),
		Phone:             strings.TrimSpace(req.Phone),
		Email:             strings.TrimSpace(req.Email),
		Website:           strings.TrimSpace(req.Website),
		LogoURL:           strings.TrimSpace(req.LogoURL),
		CardFeePercent:    fee,
		QuoteValidityDays: req.QuoteValidityDays,
		QuoteFooter:       req.QuoteFooter,
	})
	if err != nil {
		return Company{}, fmt.Errorf("update company settings: %w", err)
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:  caller.UserID,
		Action:   "settings.company_updated",
		Entity:   "company_settings",
		EntityID: "1",
	})
	return updated, nil
}
