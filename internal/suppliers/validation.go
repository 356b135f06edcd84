package suppliers

import (
	"fmt"
	"strings"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

func (s *Service) validate(sup Supplier) error {
	if strings.TrimSpace(sup.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", httpx.ErrValidation)
	}
	return nil
}
