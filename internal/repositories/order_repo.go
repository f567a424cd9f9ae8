package repositories

import (
	"context"

	"shopbot/internal/models"
)

// OrderRepository defines the interface for order data access.
// Orders are append-only; there are no update or delete operations.
type OrderRepository interface {
	// Create persists the order, reporting created == false when an order
	// with the same provider order id already exists. That makes duplicate
	// pre-checkout confirmations idempotent.
	Create(ctx context.Context, order *models.Order) (bool, error)
}
