package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/irislabs/iris-api/internal/domain"
	"github.com/irislabs/iris-api/internal/store"
)

// MockUserStore implements store.UserStore for testing. The default
// implementations operate on the in-memory Users map keyed by email; seed it
// directly or override individual methods via the function fields.
type MockUserStore struct {
	CreateFn     func(ctx context.Context, user *domain.User) error
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateFn     func(ctx context.Context, user *domain.User) error
	DeleteFn     func(ctx context.Context, id uuid.UUID) error

	Users           map[string]*domain.User
	LastUserID      uuid.UUID
	CreateError     error
	GetByEmailError error
}

// NewMockUserStore creates a new mock store with initialized defaults.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		Users: make(map[string]*domain.User),
	}
}

// SeedUser adds a user to the in-memory map, the way a login test needs one
// to exist: with a stored hash rather than a plaintext password.
func (m *MockUserStore) SeedUser(id uuid.UUID, email, hashedPassword string) *domain.User {
	user := &domain.User{
		ID:             id,
		Email:          email,
		HashedPassword: hashedPassword,
	}
	m.Users[email] = user
	return user
}

// Create implements the store.UserStore interface.
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}

	if m.CreateError != nil {
		return m.CreateError
	}

	if _, exists := m.Users[user.Email]; exists {
		return store.ErrEmailExists
	}

	m.Users[user.Email] = user
	m.LastUserID = user.ID
	return nil
}

// GetByEmail implements the store.UserStore interface.
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	if m.GetByEmailError != nil {
		return nil, m.GetByEmailError
	}

	user, exists := m.Users[email]
	if !exists {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

// GetByID implements the store.UserStore interface.
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	for _, user := range m.Users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// Update implements the store.UserStore interface.
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}

	for email, existing := range m.Users {
		if existing.ID == user.ID {
			if email != user.Email {
				if _, exists := m.Users[user.Email]; exists {
					return store.ErrEmailExists
				}
				delete(m.Users, email)
			}
			m.Users[user.Email] = user
			return nil
		}
	}
	return store.ErrUserNotFound
}

// Delete implements the store.UserStore interface.
func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	for email, user := range m.Users {
		if user.ID == id {
			delete(m.Users, email)
			return nil
		}
	}
	return store.ErrUserNotFound
}

// WithTx implements the store.UserStore interface. The mock has no real
// transactions, so it returns itself.
func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}
