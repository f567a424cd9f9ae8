package repositories

import (
	"context"

	"shopbot/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Upsert inserts the user on first contact and is a no-op for a chat
	// identity that is already known.
	Upsert(ctx context.Context, user *models.User) error
}
