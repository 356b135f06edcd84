package payables

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// Cadence controls how installment due dates advance.
type Cadence string

// Supported cadences.
const (
	CadenceNone    Cadence = "none"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// MaxInstallments bounds the size of a generated series.
const MaxInstallments = 360

// Entry is one accounts payable row. Series members carry the three series
// fields; standalone entries leave them nil.
type Entry struct {
	ID                        int64           `json:"id"`
	Name                      string          `json:"name"`
	Amount                    decimal.Decimal `json:"amount"`
	DueDate                   shared.Date     `json:"dueDate"`
	Paid                      bool            `json:"paid"`
	PaidAt                    *time.Time      `json:"paidAt,omitempty"`
	Notes                     *string         `json:"notes,omitempty"`
	Category                  string          `json:"category"`
	SupplierID                *int64          `json:"supplierId,omitempty"`
	SeriesID                  *string         `json:"seriesId,omitempty"`
	InstallmentNumberOfSeries *int            `json:"installmentNumberOfSeries,omitempty"`
	TotalInstallmentsInSeries *int            `json:"totalInstallmentsInSeries,omitempty"`
	CreatedBy                 *int64          `json:"createdBy,omitempty"`
	CreatedAt                 time.Time       `json:"createdAt"`
	UpdatedAt                 time.Time       `json:"updatedAt"`
}

// InSeries reports whether the entry belongs to an installment series.
func (e Entry) InSeries() bool {
	return e.SeriesID != nil
}

// SeriesRequest describes a total to split into dated installments.
type SeriesRequest struct {
	Name             string
	TotalAmount      decimal.Decimal
	FirstDueDate     shared.Date
	Cadence          Cadence
	InstallmentCount int
	Notes            *string
	Category         string
	SupplierID       *int64
	CreatedBy        *int64
}

// IsSeries reports whether the request expands into more than one row.
func (r SeriesRequest) IsSeries() bool {
	return r.Cadence != CadenceNone && r.Cadence != "" && r.InstallmentCount > 1
}

// Summary aggregates open obligations.
type Summary struct {
	OpenTotal          decimal.Decimal `json:"openTotal"`
	OpenCount          int             `json:"openCount"`
	OverdueTotal       decimal.Decimal `json:"overdueTotal"`
	OverdueCount       int             `json:"overdueCount"`
	DueSoonTotal       decimal.Decimal `json:"dueSoonTotal"`
	DueSoonCount       int             `json:"dueSoonCount"`
	DueSoonDays        int             `json:"dueSoonDays"`
	PaidThisMonthTotal decimal.Decimal `json:"paidThisMonthTotal"`
}

// SummaryWindow bounds the periods a Summary is computed for.
type SummaryWindow struct {
	Today      shared.Date
	DueSoonEnd shared.Date
	MonthStart time.Time
	MonthEnd   time.Time
}

// ListFilters narrows a listing.
type ListFilters struct {
	Paid       *bool
	DueFrom    shared.Date
	DueTo      shared.Date
	SeriesID   string
	SupplierID int64
	Search     string
	Page       shared.PageQuery
}
