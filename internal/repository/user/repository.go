package user

import (
	"context"

	"storefront/internal/domain"
)

// Record is a stored user with its bcrypt password hash.
type Record struct {
	domain.User
	PasswordHash string
}

// Repository persists and fetches users.
type Repository interface {
	Create(ctx context.Context, rec Record) (*Record, error)
	ListByEmail(ctx context.Context, email string) ([]Record, error)
	List(ctx context.Context) ([]Record, error)
}
