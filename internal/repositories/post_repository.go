package repositories

import (
	"context"

	"blogapi/internal/models"
)

// PostRepository defines the interface for post data access. Every post
// returned has its Author populated.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// GetByIDAndAuthor only matches posts owned by authorID.
	GetByIDAndAuthor(ctx context.Context, id, authorID uint) (*models.Post, error)
	// UpdateContent persists Title, Content and UpdatedAt of an owned post.
	UpdateContent(ctx context.Context, post *models.Post) error
	// Delete removes the post only when it is owned by authorID.
	Delete(ctx context.Context, id, authorID uint) error
	Count(ctx context.Context) (int64, error)
	// List returns posts in insertion order.
	List(ctx context.Context, offset, limit int) ([]models.Post, error)
}
