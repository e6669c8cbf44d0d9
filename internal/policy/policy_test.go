package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sujalbistaa/yatube/internal/models"
)

func TestPolicy(t *testing.T) {
	author := &models.User{ID: 1, Username: "leo"}
	other := &models.User{ID: 2, Username: "anna"}
	post := &models.Post{ID: 10, AuthorID: author.ID}

	assert.True(t, CanCreate(author))
	assert.False(t, CanCreate(nil))

	assert.True(t, CanComment(other))
	assert.False(t, CanComment(nil))

	assert.True(t, CanEdit(post, author))
	assert.False(t, CanEdit(post, other))
	assert.False(t, CanEdit(post, nil))
	assert.False(t, CanEdit(nil, author))

	assert.True(t, CanFollow(other, "leo"))
	assert.False(t, CanFollow(author, "leo"))
	assert.False(t, CanFollow(nil, "leo"))
}
