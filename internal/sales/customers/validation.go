package customers

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

func (s *Service) validate(c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: customer name is required", httpx.ErrValidation)
	}
	if c.Document != "" {
		digits := 0
		for _, r := range c.Document {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		// CPF has 11 digits, CNPJ 14.
		if digits != 11 && digits != 14 {
			return fmt.Errorf("%w: document must be a CPF or CNPJ", httpx.ErrValidation)
		}
	}
	return nil
}
