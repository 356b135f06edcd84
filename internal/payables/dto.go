package payables

import (
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// CreateRequest is the body of POST /api/accounts-payable. With a recurrence
// other than "none" and more than one installment it creates a series.
type CreateRequest struct {
	Name                 string          `json:"name" validate:"required,max=200"`
	Amount               decimal.Decimal `json:"amount"`
	DueDate              shared.Date     `json:"dueDate"`
	Recurrence           Cadence         `json:"recurrence" validate:"omitempty,oneof=none weekly monthly"`
	NumberOfInstallments int             `json:"numberOfInstallments" validate:"gte=0,lte=360"`
	Notes                *string         `json:"notes" validate:"omitempty,max=2000"`
	Category             string          `json:"category" validate:"max=100"`
	SupplierID           *int64          `json:"supplierId" validate:"omitempty,gt=0"`
}

// SeriesRequest converts the body into a planner request.
func (r CreateRequest) SeriesRequest(createdBy *int64) SeriesRequest {
	cadence := r.Recurrence
	if cadence == "" {
		cadence = CadenceNone
	}
	return SeriesRequest{
		Name:             r.Name,
		TotalAmount:      r.Amount,
		FirstDueDate:     r.DueDate,
		Cadence:          cadence,
		InstallmentCount: r.NumberOfInstallments,
		Notes:            r.Notes,
		Category:         r.Category,
		SupplierID:       r.SupplierID,
		CreatedBy:        createdBy,
	}
}

// CreateResponse reports what a create produced.
type CreateResponse struct {
	SeriesID *string `json:"seriesId,omitempty"`
	Entries  []Entry `json:"entries"`
}

// UpdateRequest edits one entry. Series membership is never changed here.
type UpdateRequest struct {
	Name       string          `json:"name" validate:"required,max=200"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    shared.Date     `json:"dueDate"`
	Notes      *string         `json:"notes" validate:"omitempty,max=2000"`
	Category   string          `json:"category" validate:"max=100"`
	SupplierID *int64          `json:"supplierId" validate:"omitempty,gt=0"`
}

// MarkPaidRequest toggles the paid flag.
type MarkPaidRequest struct {
	Paid bool `json:"paid"`
}

// SeriesResponse lists the members of one series.
type SeriesResponse struct {
	SeriesID string          `json:"seriesId"`
	Total    decimal.Decimal `json:"total"`
	Entries  []Entry         `json:"entries"`
}

// DeleteSeriesResponse reports how many rows were removed.
type DeleteSeriesResponse struct {
	SeriesID string `json:"seriesId"`
	Deleted  int64  `json:"deleted"`
}
