package suppliers

import "time"

// Supplier provides products and is the payee of accounts payable.
type Supplier struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Document    string    `json:"document"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Request is the create/update body.
type Request struct {
	Name        string `json:"name" validate:"required,max=200"`
	Document    string `json:"document" validate:"max=30"`
	ContactName string `json:"contactName" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=50"`
	Address     string `json:"address" validate:"max=500"`
	Notes       string `json:"notes" validate:"max=4000"`
}
