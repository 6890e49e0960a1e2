// Package interfaces defines service contracts for Iris
package interfaces

import (
	"context"

	"github.com/bobmcallan/iris/internal/models"
)

// SessionStore persists session identity records locally. It is the only
// persistence in iris-server; everything else is cache.
type SessionStore interface {
	// Get returns the stored user for userID, or an error when absent.
	Get(ctx context.Context, userID string) (*models.User, error)

	// Save writes the user record, creating or replacing it.
	Save(ctx context.Context, user *models.User) error

	// Delete removes the user record. Deleting an absent record is not an error.
	Delete(ctx context.Context, userID string) error

	// List returns the stored user IDs.
	List(ctx context.Context) ([]string, error)

	// Close releases store resources.
	Close() error
}
