package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/tabshare/tabshare/internal/domain"
)

type InMemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	if user == nil || user.ID == "" || user.Email == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return domain.ErrUserAlreadyExists
	}
	if _, exists := r.byID[user.ID]; exists {
		return domain.ErrUserAlreadyExists
	}

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[email] = &stored
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	out := *user
	return &out, nil
}

func (r *InMemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	out := *user
	return &out, nil
}
