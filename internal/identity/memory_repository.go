package identity

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]User
}

// NewMemoryRepository builds an in-memory user store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Upsert(_ context.Context, reg Registration) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	user, exists := r.users[reg.Phone]
	if !exists {
		r.nextID++
		user = User{
			ID:               r.nextID,
			Phone:            reg.Phone,
			SubscriptionTier: defaultTier,
			Points:           startingPoints(reg.UserType),
			CreatedAt:        now,
		}
	}
	user.Name = reg.Name
	user.UserType = reg.UserType
	user.ChildName = reg.ChildName
	user.UpdatedAt = now
	r.users[reg.Phone] = user
	return user, nil
}

func (r *memoryRepository) FindByPhone(_ context.Context, phone string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[phone]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}
