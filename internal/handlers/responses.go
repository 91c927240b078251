package handlers

import (
	"time"

	"blogapi/internal/models"
	"blogapi/internal/services"
)

// AuthorResponse is the embedded author of a post.
type AuthorResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// PostResponse is the wire form of a post.
type PostResponse struct {
	ID            uint           `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Slug          string         `json:"slug"`
	Author        AuthorResponse `json:"author"`
	Category      string         `json:"category"`
	Tag           string         `json:"tag"`
	Status        string         `json:"status"`
	FeaturedImage string         `json:"featured_image"`
	PublishedAt   string         `json:"published_at"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// MetaResponse describes the position of a page in the collection.
type MetaResponse struct {
	Page       int   `json:"page"`
	Pages      int   `json:"pages"`
	TotalCount int64 `json:"total_count"`
	PrevPage   *int  `json:"prev_page"`
	NextPage   *int  `json:"next_page"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// PostListResponse is one page of posts.
type PostListResponse struct {
	Data []PostResponse `json:"data"`
	Meta MetaResponse   `json:"meta"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func newPostResponse(p *models.Post) PostResponse {
	return PostResponse{
		ID:      p.ID,
		Title:   p.Title,
		Content: p.Content,
		Slug:    p.Slug,
		Author: AuthorResponse{
			ID:       p.AuthorID,
			Username: p.Author.Username,
		},
		Category:      p.Category,
		Tag:           p.Tag,
		Status:        p.Status,
		FeaturedImage: p.FeaturedImage,
		PublishedAt:   formatTime(p.PublishedAt),
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
}

func newPostListResponse(page *services.PostPage) PostListResponse {
	data := make([]PostResponse, 0, len(page.Items))
	for i := range page.Items {
		data = append(data, newPostResponse(&page.Items[i]))
	}
	m := page.Meta
	return PostListResponse{
		Data: data,
		Meta: MetaResponse{
			Page:       m.Page,
			Pages:      m.Pages,
			TotalCount: m.TotalCount,
			PrevPage:   m.PrevPage,
			NextPage:   m.NextPage,
			HasNext:    m.HasNext,
			HasPrev:    m.HasPrev,
		},
	}
}
