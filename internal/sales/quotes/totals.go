package quotes

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

var hundred = decimal.NewFromInt(100)

// Totals are the computed money fields of a quote.
type Totals struct {
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	CashTotal decimal.Decimal
	CardTotal decimal.Decimal
}

// ComputeTotals fills each item's total and derives the quote totals.
// Line totals are rounded to cents before summing; the card total applies
// cardFeePercent on top of the cash total.
func ComputeTotals(items []Item, discount, cardFeePercent decimal.Decimal) (Totals, error) {
	subtotal := decimal.Zero
	for i := range items {
		if !items[i].Quantity.IsPositive() {
			return Totals{}, fmt.Errorf("%w: item %d quantity must be positive", httpx.ErrValidation, i+1)
		}
		if items[i].UnitPrice.IsNegative() {
			return Totals{}, fmt.Errorf("%w: item %d unit price must not be negative", httpx.ErrValidation, i+1)
		}
		items[i].UnitPrice = items[i].UnitPrice.Round(2)
		items[i].Total = items[i].Quantity.Mul(items[i].UnitPrice).Round(2)
		items[i].Position = i + 1
		subtotal = subtotal.Add(items[i].Total)
	}
	discount = discount.Round(2)
	if discount.IsNegative() {
		return Totals{}, fmt.Errorf("%w: discount must not be negative", httpx.ErrValidation)
	}
	if discount.GreaterThan(subtotal) {
		return Totals{}, fmt.Errorf("%w: discount exceeds subtotal", httpx.ErrValidation)
	}
	cash := subtotal.Sub(discount)
	card := cash.Mul(hundred.Add(cardFeePercent)).Div(hundred).Round(2)
	return Totals{Subtotal: subtotal, Discount: discount, CashTotal: cash, CardTotal: card}, nil
}
