package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"shopbot/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	mu     sync.RWMutex
	items  map[uint]models.CartItem
	nextID uint
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		items:  make(map[uint]models.CartItem),
		nextID: 1,
	}
}

// Add inserts the cart item, reporting added == false for a (user, product)
// pair that is already present.
func (r *MockCartRepository) Add(_ context.Context, item *models.CartItem) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.UserChatID == item.UserChatID && existing.ProductID == item.ProductID {
			return false, nil
		}
	}
	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = *item
	return true, nil
}

// GetByUser returns the user's cart ordered by insertion.
func (r *MockCartRepository) GetByUser(_ context.Context, chatID int64) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []models.CartItem
	for _, item := range r.items {
		if item.UserChatID == chatID {
			list = append(list, item)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// Remove deletes one cart item by its ID.
func (r *MockCartRepository) Remove(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("cart item %d: %w", id, ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

// ClearUser deletes every cart item of the user.
func (r *MockCartRepository) ClearUser(_ context.Context, chatID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, item := range r.items {
		if item.UserChatID == chatID {
			delete(r.items, id)
			removed++
		}
	}
	return removed, nil
}
