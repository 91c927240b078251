package repositories

import (
	"context"

	"blogapi/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// Delete removes the user and every post it authored in one transaction.
	Delete(ctx context.Context, id uint) error
}
