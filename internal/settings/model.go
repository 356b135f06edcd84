package settings

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is the single company settings row. Quotes copy it into their
// snapshot at creation.
type Company struct {
	Name              string          `json:"name"`
	Document          string          `json:"document"`
	Address           string          `json:"address"`
	Phone             string          `json:"phone"`
	Email             string          `json:"email"`
	Website           string          `json:"website"`
	LogoURL           string          `json:"logoUrl"`
	CardFeePercent    decimal.Decimal `json:"cardFeePercent"`
	QuoteValidityDays int             `json:"quoteValidityDays"`
	QuoteFooter       string          `json:"quoteFooter"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// UpdateCompanyRequest replaces the company settings.
type UpdateCompanyRequest struct {
	Name              string          `json:"name" validate:"required,max=200"`
	Document          string          `json:"document" validate:"max=30"`
	Address           string          `json:"address" validate:"max=500"`
	Phone             string          `json:"phone" validate:"max=50"`
	Email             string          `json:"email" validate:"omitempty,email"`
	Website           string          `json:"website" validate:"omitempty,url"`
	LogoURL           string          `json:"logoUrl" validate:"omitempty,url"`
	CardFeePercent    decimal.Decimal `json:"cardFeePercent"`
	QuoteValidityDays int             `json:"quoteValidityDays" validate:"gte=1,lte=365"`
	QuoteFooter       string          `json:"quoteFooter" validate:"max=2000"`
}
