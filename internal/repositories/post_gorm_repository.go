package repositories

import (
	"context"
	"fmt"

	"blogapi/internal/models"

	"gorm.io/gorm"
)

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db *gorm.DB
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{
		db: db,
	}
}

// Create inserts the post and loads its author.
func (r *GORMPostRepository) Create(ctx context.Context, post *models.Post) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Author").Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post %s: %w", post.Slug, translate(err))
	}
	if err := db.First(&post.Author, post.AuthorID).Error; err != nil {
		return fmt.Errorf("failed to load author %d of post %d: %w", post.AuthorID, post.ID, translate(err))
	}
	return nil
}

// GetByID retrieves a single post by id.
func (r *GORMPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get post by ID %d: %w", id, translate(err))
	}
	return &post, nil
}

// GetByIDAndAuthor retrieves a post by id scoped to its owner.
func (r *GORMPostRepository) GetByIDAndAuthor(ctx context.Context, id, authorID uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND author_id = ?", id, authorID).
		First(&post).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d of author %d: %w", id, authorID, translate(err))
	}
	return &post, nil
}

// UpdateContent writes title, content and updated_at.
func (r *GORMPostRepository) UpdateContent(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND author_id = ?", post.ID, post.AuthorID).
		Updates(map[string]interface{}{
			"title":      post.Title,
			"content":    post.Content,
			"updated_at": post.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update post %d: %w", post.ID, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %d not found for update: %w", post.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a post owned by authorID.
func (r *GORMPostRepository) Delete(ctx context.Context, id, authorID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND author_id = ?", id, authorID).Delete(&models.Post{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %d not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the number of posts.
func (r *GORMPostRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return total, nil
}

// List returns a window of posts ordered by id.
func (r *GORMPostRepository) List(ctx context.Context, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}
