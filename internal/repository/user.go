package repository

import (
	"context"
	"errors"

	"authgate/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyExists is returned when the email is already taken.
	ErrAlreadyExists = errors.New("user already exists")
)

// UserRepository defines persistence operations for User entities.
// Create must be an atomic check-and-insert on the email: of two concurrent
// inserts with the same email, exactly one succeeds and the other returns
// ErrAlreadyExists.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
