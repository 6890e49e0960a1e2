// Package interfaces defines service contracts for Iris
package interfaces

import (
	"context"

	"github.com/bobmcallan/iris/internal/models"
)

// PortfolioService serves normalized portfolio view-models with
// stale-while-revalidate caching over the gateway snapshot.
type PortfolioService interface {
	// GetView returns the latest known view-model for a user. A cached value
	// is served immediately; a background refresh is triggered when it is
	// older than the refresh interval. An error is returned only when no
	// cached value exists and the fetch failed.
	GetView(ctx context.Context, userID string) (*models.PortfolioView, error)

	// Refresh forces a synchronous refetch, bypassing the dedupe window.
	Refresh(ctx context.Context, userID string) (*models.PortfolioView, error)

	// SummaryCards returns the formatted dashboard cards for a view.
	SummaryCards(view *models.PortfolioView) []models.SummaryCard

	// HoldingRows returns the formatted grouped holdings table for a view.
	HoldingRows(view *models.PortfolioView) []models.HoldingRow

	// RenderAllocationChart renders the allocation donut as PNG bytes.
	RenderAllocationChart(view *models.PortfolioView) ([]byte, error)

	// RenderPerformanceChart renders the performance trend line as PNG bytes.
	RenderPerformanceChart(view *models.PortfolioView) ([]byte, error)
}

// ChatService manages per-user chat sessions with strict send-order delivery.
type ChatService interface {
	// Send enqueues a prompt for the user's session and returns the appended
	// user message. Responses are appended by the session worker in FIFO order.
	Send(ctx context.Context, userID, prompt string) (*models.ChatMessage, error)

	// History returns a copy of the session transcript in append order.
	History(ctx context.Context, userID string) []models.ChatMessage

	// State returns "idle" or "awaiting_response" for the user's session.
	State(ctx context.Context, userID string) string

	// Close stops all session workers.
	Close()
}

// OnboardingService drives the linear KYC wizard.
type OnboardingService interface {
	// State returns the user's wizard state, creating it at step 1 when absent.
	State(ctx context.Context, userID string) (*models.WizardState, error)

	// Next validates the current step's fields, merges them into the wizard,
	// persists the position upstream (non-fatal on failure), and advances.
	Next(ctx context.Context, userID string, fields map[string]string) (*models.WizardState, error)

	// Back moves one step backward; always allowed, never below step 1.
	Back(ctx context.Context, userID string) (*models.WizardState, error)

	// Submit posts the accumulated application. On success the session's KYC
	// status is upgraded to VERIFIED.
	Submit(ctx context.Context, userID string) (*models.WizardState, error)
}
