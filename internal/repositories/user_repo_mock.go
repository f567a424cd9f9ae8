package repositories

import (
	"context"
	"sync"

	"shopbot/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]models.User
	nextID uint
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]models.User),
		nextID: 1,
	}
}

// Upsert registers the user on first contact; the original row wins on
// repeated calls.
func (r *MockUserRepository) Upsert(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ChatID]; ok {
		return nil
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ChatID] = *user
	return nil
}

// Get returns the stored user by chat id, nil when unknown.
func (r *MockUserRepository) Get(chatID int64) *models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.users[chatID]; ok {
		return &u
	}
	return nil
}
