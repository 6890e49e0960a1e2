// Package interfaces defines service contracts for Iris
package interfaces

import (
	"context"

	"github.com/bobmcallan/iris/internal/models"
)

// GatewayClient provides access to the IRIS API gateway.
type GatewayClient interface {
	// Login authenticates with email/password and returns the session identity.
	Login(ctx context.Context, email, password string) (*models.User, error)

	// Signup registers a new user. A duplicate email surfaces as an APIError
	// with StatusCode 409.
	Signup(ctx context.Context, firstName, lastName, email, password string) (*models.User, error)

	// SaveOnboardingStep persists the wizard position and step payload.
	SaveOnboardingStep(ctx context.Context, userID string, step int, data map[string]string) error

	// SubmitOnboarding posts the full accumulated KYC application.
	SubmitOnboarding(ctx context.Context, app *models.OnboardingApplication) error

	// GetPortfolio retrieves the aggregated portfolio snapshot for a user.
	GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error)

	// Chat sends a prompt to the advisory backend and returns its free-text reply.
	Chat(ctx context.Context, userID, prompt string) (string, error)

	// Health reports whether the gateway responds healthy.
	Health(ctx context.Context) (bool, error)
}

// ChatResponder produces an assistant reply for a prompt. Implemented by the
// gateway client and by the direct Gemini client.
type ChatResponder interface {
	Respond(ctx context.Context, userID, prompt string) (string, error)
}
