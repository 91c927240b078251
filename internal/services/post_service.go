package services

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"blogapi/internal/models"
	"blogapi/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 100

var errPostNotFound = models.NewNotFoundError("Post not found")

// CreatePostInput carries the client supplied fields of a new post.
type CreatePostInput struct {
	Title         string `json:"title" validate:"max=60"`
	Content       string `json:"content"`
	Category      string `json:"category" validate:"max=20"`
	Tag           string `json:"tag" validate:"max=20"`
	Status        string `json:"status" validate:"max=10"`
	FeaturedImage string `json:"featured_image" validate:"max=60"`
}

// UpdatePostInput holds the mutable fields; nil means keep the current value.
type UpdatePostInput struct {
	Title   *string `json:"title" validate:"omitempty,max=60"`
	Content *string `json:"content"`
}

// PageMeta describes where a page sits in the full collection.
type PageMeta struct {
	Page       int
	Pages      int
	TotalCount int64
	PrevPage   *int
	NextPage   *int
	HasNext    bool
	HasPrev    bool
}

// PostPage is one page of posts.
type PostPage struct {
	Items []models.Post
	Meta  PageMeta
}

// PostService handles business logic related to posts.
type PostService struct {
	repo      repositories.PostRepository
	validate  *validator.Validate
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewPostService creates a new PostService. publisher may be nil.
func NewPostService(repo repositories.PostRepository, publisher EventPublisher, logger *slog.Logger) *PostService {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &PostService{
		repo:      repo,
		validate:  validate,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new post owned by authorID.
func (s *PostService) Create(ctx context.Context, authorID uint, in CreatePostInput) (*models.Post, error) {
	if isBlank(in.Title) || isBlank(in.Content) {
		return nil, models.NewInvalidInputError("title and content are required")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	post := models.NewPost(in.Title, in.Content, authorID, s.now())
	post.Category = in.Category
	post.Tag = in.Tag
	post.FeaturedImage = in.FeaturedImage
	if in.Status != "" {
		post.Status = in.Status
	}

	if err := s.repo.Create(ctx, post); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Same title created twice within one second.
			return nil, models.NewConflictError("A post with this slug already exists, try again")
		}
		s.logger.Error("failed to create post", slog.Any("error", err))
		return nil, models.NewInternalError(err)
	}

	s.logger.Info("post created", slog.Uint64("post_id", uint64(post.ID)), slog.String("slug", post.Slug))
	publishEvent(s.publisher, s.logger, Event{
		Event:      EventPostCreated,
		OccurredAt: post.CreatedAt,
		UserID:     authorID,
		PostID:     post.ID,
		Slug:       post.Slug,
	})
	return post, nil
}

// List returns the requested 1-indexed page. Pages past the end are
// rejected rather than returned empty; only page 1 of an empty collection
// is allowed.
func (s *PostService) List(ctx context.Context, page, perPage int) (*PostPage, error) {
	if page < 1 || perPage < 1 {
		return nil, models.NewNotFoundError("Not found")
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if page > pages && page != 1 {
		return nil, models.NewNotFoundError("Not found")
	}

	items, err := s.repo.List(ctx, (page-1)*perPage, perPage)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	meta := PageMeta{
		Page:       page,
		Pages:      pages,
		TotalCount: total,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
	if meta.HasPrev {
		prev := page - 1
		meta.PrevPage = &prev
	}
	if meta.HasNext {
		next := page + 1
		meta.NextPage = &next
	}

	return &PostPage{Items: items, Meta: meta}, nil
}

// Get returns a post by id.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errPostNotFound
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// Update changes title and/or content of a post owned by authorID. A post
// owned by someone else is reported as not found.
func (s *PostService) Update(ctx context.Context, authorID, id uint, in UpdatePostInput) (*models.Post, error) {
	if (in.Title != nil && isBlank(*in.Title)) || (in.Content != nil && isBlank(*in.Content)) {
		return nil, models.NewInvalidInputError("title and content cannot be empty")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	post, err := s.repo.GetByIDAndAuthor(ctx, id, authorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errPostNotFound
		}
		return nil, models.NewInternalError(err)
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	post.UpdatedAt = s.now()

	if err := s.repo.UpdateContent(ctx, post); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errPostNotFound
		}
		s.logger.Error("failed to update post", slog.Uint64("post_id", uint64(id)), slog.Any("error", err))
		return nil, models.NewInternalError(err)
	}

	publishEvent(s.publisher, s.logger, Event{
		Event:      EventPostUpdated,
		OccurredAt: post.UpdatedAt,
		UserID:     authorID,
		PostID:     post.ID,
		Slug:       post.Slug,
	})
	return post, nil
}

// Delete permanently removes a post owned by authorID.
func (s *PostService) Delete(ctx context.Context, authorID, id uint) error {
	if err := s.repo.Delete(ctx, id, authorID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errPostNotFound
		}
		s.logger.Error("failed to delete post", slog.Uint64("post_id", uint64(id)), slog.Any("error", err))
		return models.NewInternalError(err)
	}

	s.logger.Info("post deleted", slog.Uint64("post_id", uint64(id)))
	publishEvent(s.publisher, s.logger, Event{
		Event:      EventPostDeleted,
		OccurredAt: s.now(),
		UserID:     authorID,
		PostID:     id,
	})
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// validationError turns the first failed rule into a client message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return models.NewInvalidInputError(fe.Field() + " must be at most " + fe.Param() + " characters")
	}
	return models.NewInvalidInputError("invalid input")
}
