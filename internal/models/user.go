package models

import (
	"encoding/json"
	"time"
)

// KYC verification states as reported by the gateway.
const (
	KYCPending  = "PENDING"
	KYCVerified = "VERIFIED"
	KYCRejected = "REJECTED"
)

// User is the session identity record. It is persisted only in the local
// session store and mirrors what the gateway returned at login/signup.
type User struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	KYCStatus string `json:"kyc_status"`
	KYCStep   int    `json:"kyc_step,omitempty"`
	// Opaque wizard progress blob, owned by the onboarding service.
	KYCProgress json.RawMessage `json:"kyc_progress,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}

// IsVerified reports whether the user has completed KYC.
func (u *User) IsVerified() bool {
	return u.KYCStatus == KYCVerified
}

// NextRoute returns where the UI should land after login:
// onboarding while KYC is pending, the dashboard otherwise.
func (u *User) NextRoute() string {
	if u.KYCStatus == KYCPending {
		return "onboarding"
	}
	return "dashboard"
}
