package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sujalbistaa/yatube/internal/auth"
	"github.com/sujalbistaa/yatube/internal/cache"
	"github.com/sujalbistaa/yatube/internal/forms"
	"github.com/sujalbistaa/yatube/internal/media"
	"github.com/sujalbistaa/yatube/internal/metrics"
	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/paginate"
	"github.com/sujalbistaa/yatube/internal/policy"
	"github.com/sujalbistaa/yatube/internal/repository"
)

// IndexCachePrefix keys the cached index pages.
const IndexCachePrefix = "index_page"

// --- Handlers ---
type Env struct {
	Repo     *repository.Repository
	Cache    cache.Cache
	Media    *media.Storage
	Auth     *auth.Service
	Log      *zap.SugaredLogger
	Metrics  *metrics.Metrics
	IndexTTL time.Duration

	// SecureCookies marks the session cookie Secure (HTTPS only).
	SecureCookies bool
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func detailURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// Index lists every post. Rendered pages are cached for IndexTTL and not
// invalidated by writes, so new posts may show up with a delay.
func (e *Env) Index(r *Request) Outcome {
	key := IndexCachePrefix + ":" + paginate.Normalize(r.Page)

	body, err := e.Cache.Get(r.Ctx, key)
	if err == nil {
		e.recordCache(true)
		return Outcome{Status: http.StatusOK, Body: body}
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		e.Log.Warnw("Cache get error", "key", key, "error", err)
	}
	e.recordCache(false)

	page, err := e.Repo.ListAll(r.Ctx, r.Page)
	if err != nil {
		return Fail(err)
	}
	body, err = encodeView("posts/index", gin.H{"page_obj": page})
	if err != nil {
		return Fail(err)
	}
	if err := e.Cache.Set(r.Ctx, key, body, e.IndexTTL); err != nil {
		e.Log.Warnw("Cache set error", "key", key, "error", err)
	}
	return Outcome{Status: http.StatusOK, Body: body}
}

func (e *Env) recordCache(hit bool) {
	if e.Metrics == nil {
		return
	}
	if hit {
		e.Metrics.RecordCacheHit(IndexCachePrefix)
	} else {
		e.Metrics.RecordCacheMiss(IndexCachePrefix)
	}
}

func (e *Env) GroupPosts(r *Request) Outcome {
	group, err := e.Repo.GetGroupBySlug(r.Ctx, r.Param("slug"))
	if err != nil {
		return FromError(err)
	}
	page, err := e.Repo.ListByGroup(r.Ctx, group, r.Page)
	if err != nil {
		return Fail(err)
	}
	return Render("posts/group_list", gin.H{
		"group":    group,
		"page_obj": page,
	})
}

func (e *Env) Profile(r *Request) Outcome {
	author, err := e.Repo.GetUserByUsername(r.Ctx, r.Param("username"))
	if err != nil {
		return FromError(err)
	}
	page, err := e.Repo.ListByAuthor(r.Ctx, author, r.Page)
	if err != nil {
		return Fail(err)
	}

	following := false
	if r.Actor != nil {
		following, err = e.Repo.FollowExists(r.Ctx, r.Actor, author)
		if err != nil {
			return Fail(err)
		}
	}

	return Render("posts/profile", gin.H{
		"author":      author,
		"author_name": author.DisplayName(),
		"page_obj":    page,
		"following":   following,
		"can_follow":  policy.CanFollow(r.Actor, author.Username),
	})
}

func (e *Env) PostDetail(r *Request) Outcome {
	id, ok := r.ID("post_id")
	if !ok {
		return NotFound()
	}
	post, err := e.Repo.GetPost(r.Ctx, id)
	if err != nil {
		return FromError(err)
	}
	return e.renderDetail(r, post, forms.CommentForm{}, nil)
}

func (e *Env) renderDetail(r *Request, post *models.Post, form forms.CommentForm, errs forms.Errors) Outcome {
	comments, err := e.Repo.ListComments(r.Ctx, post)
	if err != nil {
		return Fail(err)
	}
	data := gin.H{
		"post":     post,
		"comments": comments,
		"form":     form,
		"can_edit": policy.CanEdit(post, r.Actor),
	}
	if errs.Any() {
		data["errors"] = errs
		return Invalid("posts/post_detail", data)
	}
	return Render("posts/post_detail", data)
}

func (e *Env) postFormView(r *Request, form forms.PostForm, errs forms.Errors, post *models.Post) Outcome {
	groups, err := e.Repo.ListGroups(r.Ctx)
	if err != nil {
		return Fail(err)
	}
	data := gin.H{
		"form":    form,
		"groups":  groups,
		"is_edit": post != nil,
	}
	if post != nil {
		data["post"] = post
	}
	if errs.Any() {
		data["errors"] = errs
		return Invalid("posts/create_post", data)
	}
	return Render("posts/create_post", data)
}

// bindPostForm binds and validates the post form, checks the group exists
// and stores an uploaded image. image is "" when no file was sent.
func (e *Env) bindPostForm(r *Request, repo *repository.Repository) (form forms.PostForm, image string, errs forms.Errors, err error) {
	if err := r.Bind(&form); err != nil {
		return form, "", forms.Errors{forms.NonField: {err.Error()}}, nil
	}
	errs = form.Validate()

	if gid := form.GroupID(); gid != nil {
		if _, err := repo.GetGroup(r.Ctx, *gid); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return form, "", nil, err
			}
			forms.InvalidGroup(errs)
		}
	}

	if errs.Any() {
		return form, "", errs, nil
	}

	if fh := r.File("image"); fh != nil {
		image, err = e.Media.SavePostImage(fh)
		if errors.Is(err, media.ErrNotImage) {
			errs.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
			return form, "", errs, nil
		}
		if err != nil {
			return form, "", nil, err
		}
	}
	return form, image, errs, nil
}

func (e *Env) PostCreate(r *Request) Outcome {
	if !policy.CanCreate(r.Actor) {
		return RedirectToLogin(r)
	}
	if !r.IsPost() {
		return e.postFormView(r, forms.PostForm{}, nil, nil)
	}

	var (
		rejected *rejectedForm
		saved    string
	)
	err := e.Repo.Transaction(r.Ctx, func(repo *repository.Repository) error {
		form, image, errs, err := e.bindPostForm(r, repo)
		if err != nil {
			return err
		}
		saved = image
		if errs.Any() {
			rejected = &rejectedForm{form: form, errs: errs}
			return nil
		}

		post := &models.Post{
			Text:     form.Text,
			GroupID:  form.GroupID(),
			Image:    image,
			AuthorID: r.Actor.ID,
		}
		if err := repo.CreatePost(r.Ctx, post); err != nil {
			return err
		}
		e.Log.Infow("Post created", "post_id", post.ID, "author", r.Actor.Username)
		return nil
	})
	if err != nil {
		e.discardImage(saved)
		return Fail(err)
	}
	if rejected != nil {
		return e.postFormView(r, rejected.form, rejected.errs, nil)
	}
	return Redirect(profileURL(r.Actor.Username))
}

// rejectedForm carries a form out of a transaction so that the form view is
// rendered after the connection is released.
type rejectedForm struct {
	form forms.PostForm
	errs forms.Errors
}

// PostEdit lets the author change text, group and image. Anyone else is sent
// to the read-only detail view.
func (e *Env) PostEdit(r *Request) Outcome {
	if !policy.CanCreate(r.Actor) {
		return RedirectToLogin(r)
	}
	id, ok := r.ID("post_id")
	if !ok {
		return NotFound()
	}

	var (
		post     *models.Post
		denied   bool
		rejected *rejectedForm
		saved    string
	)
	err := e.Repo.Transaction(r.Ctx, func(repo *repository.Repository) error {
		var err error
		post, err = repo.GetPost(r.Ctx, id)
		if err != nil {
			return err
		}
		if !policy.CanEdit(post, r.Actor) {
			denied = true
			return nil
		}
		if !r.IsPost() {
			rejected = &rejectedForm{form: currentPostForm(post)}
			return nil
		}

		form, image, errs, err := e.bindPostForm(r, repo)
		if err != nil {
			return err
		}
		saved = image
		if errs.Any() {
			rejected = &rejectedForm{form: form, errs: errs}
			return nil
		}

		post.Text = form.Text
		post.GroupID = form.GroupID()
		switch {
		case image != "":
			post.Image = image
		case form.ImageCleared():
			post.Image = ""
		}
		if err := repo.UpdatePost(r.Ctx, post); err != nil {
			return err
		}
		e.Log.Infow("Post updated", "post_id", post.ID, "author", r.Actor.Username)
		return nil
	})
	switch {
	case err != nil:
		e.discardImage(saved)
		return FromError(err)
	case denied:
		return Redirect(detailURL(post.ID))
	case rejected != nil:
		return e.postFormView(r, rejected.form, rejected.errs, post)
	}
	return Redirect(detailURL(post.ID))
}

// discardImage removes an image stored by a transaction that rolled back.
func (e *Env) discardImage(ref string) {
	if err := e.Media.Remove(ref); err != nil {
		e.Log.Warnw("Orphaned media file", "image", ref, "error", err)
	}
}

func currentPostForm(p *models.Post) forms.PostForm {
	f := forms.PostForm{Text: p.Text}
	if p.GroupID != nil {
		f.Group = fmt.Sprint(*p.GroupID)
	}
	return f
}

func (e *Env) AddComment(r *Request) Outcome {
	if !policy.CanComment(r.Actor) {
		return RedirectToLogin(r)
	}
	id, ok := r.ID("post_id")
	if !ok {
		return NotFound()
	}
	post, err := e.Repo.GetPost(r.Ctx, id)
	if err != nil {
		return FromError(err)
	}

	var form forms.CommentForm
	if err := r.Bind(&form); err != nil {
		return e.renderDetail(r, post, form, forms.Errors{forms.NonField: {err.Error()}})
	}
	if errs := form.Validate(); errs.Any() {
		return e.renderDetail(r, post, form, errs)
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: r.Actor.ID,
		Text:     form.Text,
	}
	if err := e.Repo.CreateComment(r.Ctx, comment); err != nil {
		return Fail(err)
	}
	return Redirect(detailURL(post.ID))
}
