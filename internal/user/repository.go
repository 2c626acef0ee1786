package user

import (
	"context"
	"errors"
	"sync"
)

// ErrUserExists is returned by InMemoryRepository.Create for a taken username.
var ErrUserExists = errors.New("user already exists")

// Repository reads the user counts reported by the metrics endpoint.
type Repository interface {
	// Count returns the number of users.
	Count(ctx context.Context) (int64, error)

	// CountActive returns the number of users with IsActive set.
	CountActive(ctx context.Context) (int64, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for local development and tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*User
}

// NewInMemoryRepository creates a new in-memory user repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID: 1,
		users:  make(map[int64]*User),
	}
}

// Create seeds a user and assigns its ID. Usernames are unique.
func (r *InMemoryRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username {
			return ErrUserExists
		}
	}

	u.ID = r.nextID
	r.nextID++

	userCopy := *u
	r.users[u.ID] = &userCopy
	return nil
}

// Count returns the number of users.
func (r *InMemoryRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.users)), nil
}

// CountActive returns the number of active users.
func (r *InMemoryRepository) CountActive(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, u := range r.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}
