package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"blogapi/internal/models"
)

// MemoryStore is an in-memory backing store shared by MemoryUserRepository
// and MemoryPostRepository. It enforces the same unique columns and the
// same user to post cascade as the relational schema.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[uint]models.User
	posts      map[uint]models.Post
	nextUserID uint
	nextPostID uint
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uint]models.User),
		posts: make(map[uint]models.Post),
	}
}

// Users returns a UserRepository view over the store.
func (s *MemoryStore) Users() *MemoryUserRepository {
	return &MemoryUserRepository{store: s}
}

// Posts returns a PostRepository view over the store.
func (s *MemoryStore) Posts() *MemoryPostRepository {
	return &MemoryPostRepository{store: s}
}

// withAuthor must be called with at least a read lock held.
func (s *MemoryStore) withAuthor(p models.Post) models.Post {
	p.Author = s.users[p.AuthorID]
	return p
}

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	store *MemoryStore
}

// Create adds a new user.
func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("failed to create user %s: %w", user.Email, ErrDuplicate)
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = *user
	return nil
}

// GetByEmail returns a user by email.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
}

// GetByID returns a user by id.
func (r *MemoryUserRepository) GetByID(_ context.Context, id uint) (*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	return &u, nil
}

// Delete removes a user and all of its posts.
func (r *MemoryUserRepository) Delete(_ context.Context, id uint) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user with ID %d not found for deletion: %w", id, ErrNotFound)
	}
	for pid, p := range s.posts {
		if p.AuthorID == id {
			delete(s.posts, pid)
		}
	}
	delete(s.users, id)
	return nil
}

// MemoryPostRepository is an in-memory implementation of PostRepository.
type MemoryPostRepository struct {
	store *MemoryStore
}

// Create adds a new post.
func (r *MemoryPostRepository) Create(_ context.Context, post *models.Post) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[post.AuthorID]; !ok {
		return fmt.Errorf("author %d does not exist: %w", post.AuthorID, ErrNotFound)
	}
	for _, p := range s.posts {
		if p.Slug == post.Slug {
			return fmt.Errorf("failed to create post %s: %w", post.Slug, ErrDuplicate)
		}
	}
	s.nextPostID++
	post.ID = s.nextPostID
	post.Author = models.User{}
	s.posts[post.ID] = *post
	*post = s.withAuthor(*post)
	return nil
}

// GetByID returns a post by id.
func (r *MemoryPostRepository) GetByID(_ context.Context, id uint) (*models.Post, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post with ID %d: %w", id, ErrNotFound)
	}
	p = s.withAuthor(p)
	return &p, nil
}

// GetByIDAndAuthor returns a post by id when authorID owns it.
func (r *MemoryPostRepository) GetByIDAndAuthor(_ context.Context, id, authorID uint) (*models.Post, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok || p.AuthorID != authorID {
		return nil, fmt.Errorf("post %d of author %d: %w", id, authorID, ErrNotFound)
	}
	p = s.withAuthor(p)
	return &p, nil
}

// UpdateContent overwrites title, content and updated_at.
func (r *MemoryPostRepository) UpdateContent(_ context.Context, post *models.Post) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[post.ID]
	if !ok || p.AuthorID != post.AuthorID {
		return fmt.Errorf("post %d not found for update: %w", post.ID, ErrNotFound)
	}
	p.Title = post.Title
	p.Content = post.Content
	p.UpdatedAt = post.UpdatedAt
	s.posts[p.ID] = p
	return nil
}

// Delete removes a post owned by authorID.
func (r *MemoryPostRepository) Delete(_ context.Context, id, authorID uint) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok || p.AuthorID != authorID {
		return fmt.Errorf("post %d not found for deletion: %w", id, ErrNotFound)
	}
	delete(s.posts, id)
	return nil
}

// Count returns the number of posts.
func (r *MemoryPostRepository) Count(_ context.Context) (int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.posts)), nil
}

// List returns posts ordered by id.
func (r *MemoryPostRepository) List(_ context.Context, offset, limit int) ([]models.Post, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if offset >= len(ids) {
		return []models.Post{}, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	posts := make([]models.Post, 0, end-offset)
	for _, id := range ids[offset:end] {
		posts = append(posts, s.withAuthor(s.posts[id]))
	}
	return posts, nil
}

var (
	_ UserRepository = (*MemoryUserRepository)(nil)
	_ PostRepository = (*MemoryPostRepository)(nil)
	_ UserRepository = (*GORMUserRepository)(nil)
	_ PostRepository = (*GORMPostRepository)(nil)
)
