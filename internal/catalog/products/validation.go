package products

import (
	"fmt"
	"strings"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", httpx.ErrValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", httpx.ErrValidation)
	}
	if p.Cost.IsNegative() {
		return fmt.Errorf("%w: cost must not be negative", httpx.ErrValidation)
	}
	return nil
}
