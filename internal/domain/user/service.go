package user

import (
	"context"
	"errors"
	"time"

	"github.com/example/pos-backend/internal/auth"
	"github.com/google/uuid"
)

// Service implements account registration and credential checks.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates a new account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, tenantID, email, password, name, role string) (*User, error) {
	existing, err := s.store.GetByEmail(ctx, tenantID, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = RoleCashier
	}
	now := time.Now()
	u := &User{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies credentials and returns the account. A wrong
// email and a wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, tenantID, email, password string) (*User, error) {
	u, err := s.store.GetByEmail(ctx, tenantID, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.Active {
		return nil, ErrInactive
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns the account for the given id.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*User, error) {
	return s.store.GetByID(ctx, tenantID, id)
}
