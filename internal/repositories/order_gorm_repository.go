package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopbot/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create persists the order, ignoring the insert when the provider order id
// is already recorded.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(order)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create order %s: %w", order.OrderID, res.Error)
	}
	return res.RowsAffected > 0, nil
}
