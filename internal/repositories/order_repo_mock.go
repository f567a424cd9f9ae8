package repositories

import (
	"context"
	"sync"

	"shopbot/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]models.Order
	nextID uint
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
		nextID: 1,
	}
}

// Create persists the order, reporting created == false for a provider order
// id that was already confirmed.
func (r *MockOrderRepository) Create(_ context.Context, order *models.Order) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.OrderID]; ok {
		return false, nil
	}
	order.ID = r.nextID
	r.nextID++
	r.orders[order.OrderID] = *order
	return true, nil
}

// Get returns the stored order by provider order id, nil when unknown.
func (r *MockOrderRepository) Get(orderID string) *models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if o, ok := r.orders[orderID]; ok {
		return &o
	}
	return nil
}
