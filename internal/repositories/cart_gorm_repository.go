package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopbot/internal/models"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository. It can
// be rebound to a transaction handle by constructing it from the tx.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// Add inserts the cart item, ignoring the insert when the (user, product)
// pair is already in the cart.
func (r *GORMCartRepository) Add(ctx context.Context, item *models.CartItem) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item)
	if res.Error != nil {
		return false, fmt.Errorf("failed to add product %d to cart of %d: %w",
			item.ProductID, item.UserChatID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetByUser retrieves the user's cart items ordered by id.
func (r *GORMCartRepository) GetByUser(ctx context.Context, chatID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_chat_id = ?", chatID).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get cart of %d: %w", chatID, err)
	}
	return items, nil
}

// Remove deletes a single cart item by its ID.
func (r *GORMCartRepository) Remove(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %d: %w", id, ErrNotFound)
	}
	return nil
}

// ClearUser deletes all cart items belonging to the user.
func (r *GORMCartRepository) ClearUser(ctx context.Context, chatID int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, "user_chat_id = ?", chatID)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear cart of %d: %w", chatID, res.Error)
	}
	return res.RowsAffected, nil
}
