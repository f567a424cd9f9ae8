package repositories

import (
	"context"

	"shopbot/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// Add inserts the cart item, reporting added == false when the user
	// already has this product in their cart.
	Add(ctx context.Context, item *models.CartItem) (bool, error)
	// GetByUser returns the user's cart ordered by insertion.
	GetByUser(ctx context.Context, chatID int64) ([]models.CartItem, error)
	// Remove deletes one cart item by its own identifier.
	Remove(ctx context.Context, id uint) error
	// ClearUser deletes every cart item of the user and reports how many
	// rows were removed.
	ClearUser(ctx context.Context, chatID int64) (int64, error)
}
