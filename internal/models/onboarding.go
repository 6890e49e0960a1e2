package models

// Wizard step numbers. The wizard is strictly linear.
const (
	StepIdentity = 1
	StepContact  = 2
	StepReview   = 3
)

// WizardState is the per-user onboarding wizard position and accumulated
// form fields. Fields survive any forward/back traversal.
type WizardState struct {
	UserID    string            `json:"user_id"`
	Step      int               `json:"step"`
	Fields    map[string]string `json:"fields"`
	Submitted bool              `json:"submitted"`

	// LastSaveErr records the most recent non-fatal step-save failure.
	// The wizard advances regardless; the error is surfaced, not swallowed.
	LastSaveErr string `json:"last_save_error,omitempty"`
}

// OnboardingApplication is the full KYC payload posted to the gateway on
// final submit. Field names follow the gateway contract.
type OnboardingApplication struct {
	UserID        string   `json:"user_id"`
	AccountID     string   `json:"account_id,omitempty"`
	TaxID         string   `json:"tax_id"`
	DateOfBirth   string   `json:"date_of_birth"`
	StreetAddress []string `json:"street_address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	PostalCode    string   `json:"postal_code"`
	Country       string   `json:"country"`
	Phone         string   `json:"phone"`
	FundingSource []string `json:"funding_source"`
}
