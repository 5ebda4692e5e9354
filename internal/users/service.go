package users

import (
	"context"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims creates or updates a user using verified token claims
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*User, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return nil, nil
	}
	u := &User{
		Sub:   sub,
		Email: email,
		Name:  name,
		Role:  role,
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// GetByEmail resolves a user by email, case-insensitively. It returns
// (nil, nil) for an empty or unknown address.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	if normalizeEmail(email) == "" {
		return nil, nil
	}
	return s.repo.GetByEmail(ctx, email)
}
