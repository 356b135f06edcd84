package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/payables"
)

// MaxMonths bounds the monthly series.
const MaxMonths = 24

// Summary is the landing page read model.
type Summary struct {
	QuotesByStatus         map[string]int   `json:"quotesByStatus"`
	QuotesThisMonth        int              `json:"quotesThisMonth"`
	AcceptedValueThisMonth decimal.Decimal  `json:"acceptedValueThisMonth"`
	Payables               payables.Summary `json:"payables"`
	CustomerCount          int              `json:"customerCount"`
	ProductCount           int              `json:"productCount"`
	GeneratedAt            time.Time        `json:"generatedAt"`
}

// MonthlyPoint aggregates the quotes created in one calendar month.
type MonthlyPoint struct {
	Month         string          `json:"month"`
	QuoteCount    int             `json:"quoteCount"`
	AcceptedValue decimal.Decimal `json:"acceptedValue"`
}

// Range is a half-open [Start, End) creation time window.
type Range struct {
	Start time.Time
	End   time.Time
}

// RangeStats is what the repository returns per Range.
type RangeStats struct {
	QuoteCount    int
	AcceptedValue decimal.Decimal
}
