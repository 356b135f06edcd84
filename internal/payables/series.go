package payables

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/shared"
)

// PlanSeries expands req into the rows to persist. It has no side effects;
// seriesID is stamped on every member when the request is a series.
//
// The per-installment amount is total/count rounded to cents and the last
// installment absorbs the remainder, so the rows always sum to the total.
func PlanSeries(req SeriesRequest, seriesID string) ([]Entry, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if req.FirstDueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", httpx.ErrValidation)
	}
	total := req.TotalAmount.Round(2)
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", httpx.ErrValidation)
	}
	count := req.InstallmentCount
	if count == 0 {
		count = 1
	}
	if count < 1 || count > MaxInstallments {
		return nil, fmt.Errorf("%w: number of installments must be between 1 and %d", httpx.ErrValidation, MaxInstallments)
	}
	switch req.Cadence {
	case "", CadenceNone, CadenceWeekly, CadenceMonthly:
	default:
		return nil, fmt.Errorf("%w: unknown recurrence %q", httpx.ErrValidation, req.Cadence)
	}

	base := Entry{
		Category:   strings.TrimSpace(req.Category),
		SupplierID: req.SupplierID,
		CreatedBy:  req.CreatedBy,
	}

	req.InstallmentCount = count
	if !req.IsSeries() {
		entry := base
		entry.Name = name
		entry.Amount = total
		entry.DueDate = req.FirstDueDate
		entry.Notes = req.Notes
		return []Entry{entry}, nil
	}
	if seriesID == "" {
		return nil, fmt.Errorf("payables: series id required")
	}

	n := decimal.NewFromInt(int64(count))
	per := total.DivRound(n, 2)
	last := total.Sub(per.Mul(decimal.NewFromInt(int64(count - 1))))
	if !per.IsPositive() || !last.IsPositive() {
		return nil, fmt.Errorf("%w: amount %s is too small for %d installments", httpx.ErrValidation, total.StringFixed(2), count)
	}

	entries := make([]Entry, count)
	for i := 0; i < count; i++ {
		entry := base
		entry.Name = fmt.Sprintf("%s - %d/%d", name, i+1, count)
		entry.Amount = per
		if i == count-1 {
			entry.Amount = last
		}
		entry.DueDate = dueDate(req, i)
		if i == 0 {
			entry.Notes = req.Notes
		}
		sid := seriesID
		number := i + 1
		totalCount := count
		entry.SeriesID = &sid
		entry.InstallmentNumberOfSeries = &number
		entry.TotalInstallmentsInSeries = &totalCount
		entries[i] = entry
	}
	return entries, nil
}

// dueDate offsets installment i from the first due date. Monthly steps are
// always taken from the first date, so a 31st keeps returning to month ends.
func dueDate(req SeriesRequest, i int) shared.Date {
	switch req.Cadence {
	case CadenceWeekly:
		return req.FirstDueDate.AddDays(7 * i)
	case CadenceMonthly:
		return req.FirstDueDate.AddMonthsClamped(i)
	default:
		return req.FirstDueDate
	}
}
