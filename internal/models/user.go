package models

import (
	"strings"
	"time"
)

// User is a registered author. Username is always derived from Email.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(100);not null"`
	Username  string    `json:"username" gorm:"index;type:varchar(80)"`
	Password  string    `json:"-" gorm:"type:text;not null"`
	Posts     []Post    `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser builds a User ready to be stored. passwordHash must already be
// hashed; the plaintext never reaches this type.
func NewUser(email, passwordHash string, now time.Time) *User {
	return &User{
		Email:     email,
		Username:  UsernameFromEmail(email),
		Password:  passwordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UsernameFromEmail returns the local part of an email address.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
