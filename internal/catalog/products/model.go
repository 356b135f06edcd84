package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Product is a sellable catalog item.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	SKU         *string         `json:"sku"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	CategoryID  *int64          `json:"categoryId"`
	SupplierID  *int64          `json:"supplierId"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Request is the create/update body. Active defaults to true when omitted.
type Request struct {
	Name        string          `json:"name" validate:"required,max=200"`
	SKU         string          `json:"sku" validate:"max=60"`
	Description string          `json:"description" validate:"max=4000"`
	Unit        string          `json:"unit" validate:"max=20"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	CategoryID  *int64          `json:"categoryId" validate:"omitempty,gt=0"`
	SupplierID  *int64          `json:"supplierId" validate:"omitempty,gt=0"`
	Active      *bool           `json:"active"`
}

// ListFilters narrows product listings.
type ListFilters struct {
	shared.ListFilters
	CategoryID int64
	SupplierID int64
	Active     *bool
}
