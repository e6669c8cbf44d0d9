package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/yatube/internal/forms"
	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/repository"
)

// ClearCache drops every cached page.
func (e *Env) ClearCache(c *gin.Context) {
	if err := e.Cache.Clear(c.Request.Context()); err != nil {
		e.Log.Errorw("Cache clear failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cache"})
		return
	}
	e.Log.Infow("Cache cleared")
	c.Status(http.StatusNoContent)
}

// CreateGroup adds a group from a JSON or form body.
func (e *Env) CreateGroup(c *gin.Context) {
	var form forms.GroupForm
	if err := c.ShouldBind(&form); err != nil && !forms.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if errs := form.Validate(); errs.Any() {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	group := models.Group{
		Title:       form.Title,
		Slug:        form.Slug,
		Description: form.Description,
	}
	if err := e.Repo.CreateGroup(c.Request.Context(), &group); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"errors": forms.Errors{"slug": {"Group with this Slug already exists."}}})
			return
		}
		e.Log.Errorw("Create group failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, group)
}
