package quotes

import (
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// ItemRequest is one requested line. With a productId, an empty description
// or a missing unitPrice is taken from the product.
type ItemRequest struct {
	ProductID   *int64           `json:"productId" validate:"omitempty,gt=0"`
	Description string           `json:"description" validate:"max=1000"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
}

// CreateRequest is the body of POST /api/quotes. customerName is used when no
// customerId is given.
type CreateRequest struct {
	CustomerID   *int64          `json:"customerId" validate:"omitempty,gt=0"`
	CustomerName string          `json:"customerName" validate:"max=200"`
	Items        []ItemRequest   `json:"items" validate:"required,min=1,max=200,dive"`
	Discount     decimal.Decimal `json:"discount"`
	ValidUntil   shared.Date     `json:"validUntil"`
	PaymentTerms string          `json:"paymentTerms" validate:"max=1000"`
	Notes        string          `json:"notes" validate:"max=4000"`
}

// UpdateRequest replaces the editable fields of a quote.
type UpdateRequest CreateRequest

// StatusRequest is the body of PATCH /api/quotes/{id}/status.
type StatusRequest struct {
	Status Status `json:"status" validate:"required"`
}
