package repositories

import (
	"context"

	"shopbot/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// GetAll returns the catalog ordered by id, oldest first.
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	// Create inserts the product. A name collision is not an error: the
	// insert becomes a no-op and Create reports created == false.
	Create(ctx context.Context, product *models.Product) (bool, error)
	Delete(ctx context.Context, id uint) error
}
