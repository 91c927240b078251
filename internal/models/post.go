package models

import (
	"time"

	"blogapi/pkg/slugify"
)

// DefaultPostStatus is the status every new post starts in.
const DefaultPostStatus = "draft"

// Post is a blog entry owned by exactly one User.
type Post struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Title         string    `json:"title" gorm:"type:varchar(60);not null"`
	Slug          string    `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Content       string    `json:"content" gorm:"type:text;not null"`
	Category      string    `json:"category" gorm:"type:varchar(20)"`
	Tag           string    `json:"tag" gorm:"type:varchar(20)"`
	Status        string    `json:"status" gorm:"type:varchar(10);default:draft"`
	FeaturedImage string    `json:"featured_image" gorm:"type:varchar(60)"`
	AuthorID      uint      `json:"author_id" gorm:"not null;index"`
	Author        User      `json:"-" gorm:"foreignKey:AuthorID"`
	PublishedAt   time.Time `json:"published_at" gorm:"column:plublished_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewPost builds a Post with its slug, default status and timestamps
// derived from now. The publish timestamp is fixed at creation.
func NewPost(title, content string, authorID uint, now time.Time) *Post {
	return &Post{
		Title:       title,
		Slug:        slugify.Generate(title, now),
		Content:     content,
		Status:      DefaultPostStatus,
		AuthorID:    authorID,
		PublishedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
