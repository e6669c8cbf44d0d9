package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/paginate"
)

var (
	// ErrNotFound is returned when a looked up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("already exists")
)

// Newest first; the id breaks ties between rows created in the same instant.
const (
	postOrder    = "posts.created_at DESC, posts.id DESC"
	commentOrder = "comments.created_at ASC, comments.id ASC"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn against a repository bound to a single transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// --- Users ---

func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	var n int64
	if err := r.conn(ctx).Model(&models.User{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("user %q: %w", u.Username, ErrConflict)
	}
	if err := r.conn(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("user %q: %w", u.Username, ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.conn(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// --- Groups ---

func (r *Repository) CreateGroup(ctx context.Context, g *models.Group) error {
	var n int64
	if err := r.conn(ctx).Model(&models.Group{}).Where("slug = ?", g.Slug).Count(&n).Error; err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("group %q: %w", g.Slug, ErrConflict)
	}
	if err := r.conn(ctx).Create(g).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("group %q: %w", g.Slug, ErrConflict)
		}
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *Repository) GetGroup(ctx context.Context, id uint) (*models.Group, error) {
	var g models.Group
	if err := r.conn(ctx).First(&g, id).Error; err != nil {
		return nil, notFound(err, "group")
	}
	return &g, nil
}

func (r *Repository) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var g models.Group
	if err := r.conn(ctx).Where("slug = ?", slug).First(&g).Error; err != nil {
		return nil, notFound(err, "group")
	}
	return &g, nil
}

func (r *Repository) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := r.conn(ctx).Order("title ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// --- Posts ---

func (r *Repository) CreatePost(ctx context.Context, p *models.Post) error {
	if err := r.conn(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// UpdatePost writes the editable fields of p. ID, author and creation time
// are left untouched.
func (r *Repository) UpdatePost(ctx context.Context, p *models.Post) error {
	res := r.conn(ctx).Model(&models.Post{ID: p.ID}).
		Select("text", "image", "group_id").
		Updates(map[string]any{"text": p.Text, "image": p.Image, "group_id": p.GroupID})
	if res.Error != nil {
		return fmt.Errorf("update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %d: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	if err := r.conn(ctx).Preload("Author").Preload("Group").First(&p, id).Error; err != nil {
		return nil, notFound(err, "post")
	}
	return &p, nil
}

// DeletePosts removes every post and its comments.
func (r *Repository) DeletePosts(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := all.Delete(&models.Post{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("delete posts: %w", err)
	}
	return deleted, nil
}

type postFilter func(*gorm.DB) *gorm.DB

func (r *Repository) listPosts(ctx context.Context, raw string, filter postFilter) (paginate.Page[models.Post], error) {
	conn := r.conn(ctx)

	var total int64
	if err := conn.Model(&models.Post{}).Scopes(filter).Count(&total).Error; err != nil {
		return paginate.Page[models.Post]{}, fmt.Errorf("count posts: %w", err)
	}

	w := paginate.Resolve(int(total), raw)
	var posts []models.Post
	err := conn.Scopes(filter).
		Preload("Author").
		Preload("Group").
		Order(postOrder).
		Offset(w.Offset()).
		Limit(w.Limit()).
		Find(&posts).Error
	if err != nil {
		return paginate.Page[models.Post]{}, fmt.Errorf("list posts: %w", err)
	}
	return paginate.Of(w, posts), nil
}

// ListAll returns one page of every post, newest first.
func (r *Repository) ListAll(ctx context.Context, page string) (paginate.Page[models.Post], error) {
	return r.listPosts(ctx, page, func(db *gorm.DB) *gorm.DB { return db })
}

func (r *Repository) ListByGroup(ctx context.Context, g *models.Group, page string) (paginate.Page[models.Post], error) {
	return r.listPosts(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.group_id = ?", g.ID)
	})
}

func (r *Repository) ListByAuthor(ctx context.Context, u *models.User, page string) (paginate.Page[models.Post], error) {
	return r.listPosts(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id = ?", u.ID)
	})
}

// ListFeedFor returns posts written by anyone u follows.
func (r *Repository) ListFeedFor(ctx context.Context, u *models.User, page string) (paginate.Page[models.Post], error) {
	return r.listPosts(ctx, page, func(db *gorm.DB) *gorm.DB {
		followed := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Follow{}).
			Select("author_id").
			Where("user_id = ?", u.ID)
		return db.Where("posts.author_id IN (?)", followed)
	})
}

// --- Comments ---

func (r *Repository) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := r.conn(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListComments returns the comments of p, oldest first.
func (r *Repository) ListComments(ctx context.Context, p *models.Post) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.conn(ctx).
		Preload("Author").
		Where("comments.post_id = ?", p.ID).
		Order(commentOrder).
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// --- Follows ---

func (r *Repository) FollowExists(ctx context.Context, user, author *models.User) (bool, error) {
	var n int64
	err := r.conn(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return n > 0, nil
}

// CreateFollowIfAbsent adds the user -> author edge. It reports false when
// the edge was already there.
func (r *Repository) CreateFollowIfAbsent(ctx context.Context, user, author *models.User) (bool, error) {
	f := models.Follow{UserID: user.ID, AuthorID: author.ID}
	res := r.conn(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&f)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("create follow: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) DeleteFollow(ctx context.Context, user, author *models.User) error {
	res := r.conn(ctx).
		Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("delete follow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("follow %s -> %s: %w", user.Username, author.Username, ErrNotFound)
	}
	return nil
}

func (r *Repository) CountFollows(ctx context.Context) (int64, error) {
	var n int64
	if err := r.conn(ctx).Model(&models.Follow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count follows: %w", err)
	}
	return n, nil
}

// --- Sessions ---

func (r *Repository) CreateSession(ctx context.Context, s *models.Session) error {
	if err := r.conn(ctx).Omit(clause.Associations).Create(s).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SessionUser returns the owner of an unexpired session.
func (r *Repository) SessionUser(ctx context.Context, key string, now time.Time) (*models.User, error) {
	var s models.Session
	err := r.conn(ctx).Preload("User").
		Where("session_key = ? AND expires_at > ?", key, now).
		First(&s).Error
	if err != nil {
		return nil, notFound(err, "session")
	}
	return &s.User, nil
}

func (r *Repository) DeleteSession(ctx context.Context, key string) error {
	if err := r.conn(ctx).Where("session_key = ?", key).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
