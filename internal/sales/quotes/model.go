package quotes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Status is the lifecycle state of a quote.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusSent             Status = "sent"
	StatusAccepted         Status = "accepted"
	StatusRejected         Status = "rejected"
	StatusConvertedToOrder Status = "converted_to_order"
	StatusCancelled        Status = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusConvertedToOrder, StatusCancelled,
}

var transitions = map[Status][]Status{
	StatusDraft:    {StatusSent, StatusAccepted, StatusRejected, StatusCancelled},
	StatusSent:     {StatusAccepted, StatusRejected, StatusCancelled, StatusDraft},
	StatusAccepted: {StatusConvertedToOrder, StatusCancelled},
	StatusRejected: {StatusDraft},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransition reports whether a quote in s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether items and totals may still change.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusSent
}

// Item is one ordered quote line.
type Item struct {
	ID          int64           `json:"id"`
	ProductID   *int64          `json:"productId"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
	Position    int             `json:"position"`
}

// CompanySnapshot freezes the issuing company data at creation so printed
// quotes do not change when settings do.
type CompanySnapshot struct {
	Name           string          `json:"name"`
	Document       string          `json:"document"`
	Address        string          `json:"address"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Website        string          `json:"website"`
	LogoURL        string          `json:"logoUrl"`
	CardFeePercent decimal.Decimal `json:"cardFeePercent"`
	QuoteFooter    string          `json:"quoteFooter"`
}

// Quote is a priced offer to a customer.
type Quote struct {
	ID              int64           `json:"id"`
	QuoteNumber     string          `json:"quoteNumber"`
	CustomerID      *int64          `json:"customerId"`
	CustomerName    string          `json:"customerName"`
	Status          Status          `json:"status"`
	Items           []Item          `json:"items,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	CashTotal       decimal.Decimal `json:"cashTotal"`
	CardTotal       decimal.Decimal `json:"cardTotal"`
	ValidUntil      shared.Date     `json:"validUntil"`
	PaymentTerms    string          `json:"paymentTerms"`
	Notes           string          `json:"notes"`
	SalespersonID   *int64          `json:"salespersonId"`
	SalespersonName string          `json:"salespersonName"`
	Company         CompanySnapshot `json:"companySnapshot"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ListFilters narrows quote listings. From and To bound the creation date,
// both inclusive.
type ListFilters struct {
	Status     Status
	CustomerID int64
	Search     string
	From       shared.Date
	To         shared.Date
	Page       shared.PageQuery
}
