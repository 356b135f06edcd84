package customers

// Request is the create/update body.
type Request struct {
	Name     string `json:"name" validate:"required,max=200"`
	Document string `json:"document" validate:"max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"max=50"`
	Address  string `json:"address" validate:"max=500"`
	City     string `json:"city" validate:"max=120"`
	State    string `json:"state" validate:"max=60"`
	Notes    string `json:"notes" validate:"max=4000"`
}
