// Package policy holds the access rules consulted before any mutation.
// A nil actor is an anonymous visitor.
package policy

import "github.com/sujalbistaa/yatube/internal/models"

// CanCreate reports whether actor may publish a new post.
func CanCreate(actor *models.User) bool {
	return actor != nil
}

// CanComment reports whether actor may comment on a post.
func CanComment(actor *models.User) bool {
	return actor != nil
}

// CanEdit reports whether actor is the author of post.
func CanEdit(post *models.Post, actor *models.User) bool {
	return actor != nil && post != nil && actor.ID == post.AuthorID
}

// CanFollow reports whether actor may follow the user called target.
// Following yourself is not allowed.
func CanFollow(actor *models.User, target string) bool {
	return actor != nil && actor.Username != target
}
