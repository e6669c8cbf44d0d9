package models

import (
	"strings"
	"time"
)

// User is an author or reader. Credentials are managed by the auth package.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"size:150;not null;uniqueIndex" json:"username"`
	FirstName    string    `gorm:"size:150;not null;default:''" json:"firstName"`
	LastName     string    `gorm:"size:150;not null;default:''" json:"lastName"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"dateJoined"`
}

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

// Group is a category posts can belong to.
type Group struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:200;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
}

// Post is a single blog entry. AuthorID never changes after creation.
type Post struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"pubDate"`
	Image     string    `gorm:"size:255;not null;default:''" json:"image,omitempty"` // media-relative path, e.g. posts/cat.png
	AuthorID  uint      `gorm:"not null;index" json:"-"`
	Author    User      `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	GroupID   *uint     `gorm:"index" json:"-"`
	Group     *Group    `gorm:"constraint:OnDelete:SET NULL" json:"group,omitempty"`
}

// Comment belongs to exactly one post.
type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	Post      Post      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  uint      `gorm:"not null;index" json:"-"`
	Author    User      `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created"`
}

// Follow is a directed edge from UserID (the follower) to AuthorID.
// At most one edge exists per ordered pair.
type Follow struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_user_author" json:"userId"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_user_author;index" json:"authorId"`
	Author    User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session maps an opaque cookie value to a logged in user.
type Session struct {
	Key       string    `gorm:"column:session_key;primarykey;size:36"`
	UserID    uint      `gorm:"not null;index"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}, &Session{}}
}
