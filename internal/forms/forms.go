// Package forms binds and validates user submitted input.
package forms

import (
	"strconv"
	"strings"
)

const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// Errors maps a field name to its validation messages. Problems that are
// not tied to one field go under NonField.
type Errors map[string][]string

const NonField = "__all__"

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Any() bool {
	return len(e) > 0
}

// PostForm is the create/edit post form. Group holds the raw group id, an
// empty value means "no group".
type PostForm struct {
	Text       string `form:"text" json:"text" binding:"required"`
	Group      string `form:"group" json:"group" binding:"omitempty,number"`
	ClearImage string `form:"image-clear" json:"-"`
}

// ImageCleared reports whether the "clear" checkbox for the image was ticked.
func (f *PostForm) ImageCleared() bool {
	switch strings.ToLower(strings.TrimSpace(f.ClearImage)) {
	case "", "0", "false", "off":
		return false
	}
	return true
}

// Validate normalizes the form in place and returns its errors.
func (f *PostForm) Validate() Errors {
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)

	errs := validate(f)
	if _, bad := errs["group"]; !bad && f.Group != "" {
		// digits only, but it still has to fit an id
		if _, err := strconv.ParseUint(f.Group, 10, 64); err != nil {
			InvalidGroup(errs)
		}
	}
	return errs
}

// GroupID returns the selected group id, or nil for none. Call after Validate.
func (f *PostForm) GroupID() *uint {
	if f.Group == "" {
		return nil
	}
	id, err := strconv.ParseUint(f.Group, 10, 64)
	if err != nil {
		return nil
	}
	v := uint(id)
	return &v
}

// InvalidGroup records that the chosen group does not exist.
func InvalidGroup(errs Errors) {
	errs.Add("group", msgInvalidChoice)
}

type CommentForm struct {
	Text string `form:"text" json:"text" binding:"required"`
}

func (f *CommentForm) Validate() Errors {
	f.Text = strings.TrimSpace(f.Text)
	return validate(f)
}

const MaxUsernameLength = 150

type SignupForm struct {
	Username  string `form:"username" json:"username" binding:"required,max=150,username"`
	Password  string `form:"password" json:"-" binding:"required,min=8"`
	FirstName string `form:"first_name" json:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" json:"last_name" binding:"max=150"`
}

func (f *SignupForm) Validate() Errors {
	f.Username = strings.TrimSpace(f.Username)
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	return validate(f)
}

type LoginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"-" binding:"required"`
	Next     string `form:"next" json:"next"`
}

func (f *LoginForm) Validate() Errors {
	f.Username = strings.TrimSpace(f.Username)
	return validate(f)
}

// GroupForm creates a group. Groups are only managed by administrators.
type GroupForm struct {
	Title       string `form:"title" json:"title" binding:"required,max=200"`
	Slug        string `form:"slug" json:"slug" binding:"required,max=200,slug"`
	Description string `form:"description" json:"description"`
}

func (f *GroupForm) Validate() Errors {
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Description = strings.TrimSpace(f.Description)
	return validate(f)
}
