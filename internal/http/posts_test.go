package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sujalbistaa/yatube/internal/cache"
	"github.com/sujalbistaa/yatube/internal/forms"
	"github.com/sujalbistaa/yatube/internal/media"
)

func TestUnknownGroupIs404(t *testing.T) {
	s := newServer(t)

	w := s.get("/group/nope/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "core/404", decodeView(t, w).View)
}

func TestUnknownPathRendersCustom404(t *testing.T) {
	s := newServer(t)

	for _, path := range []string{"/no/such/page/", "/posts/abc/", "/posts/999/", "/profile/ghost/"} {
		t.Run(path, func(t *testing.T) {
			w := s.get(path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
			v := decodeView(t, w)
			assert.Equal(t, "core/404", v.View)
			assert.Equal(t, path, field[string](t, v, "path"))
		})
	}
}

func TestListingsPaginate(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	cats := s.group("cats")
	for i := 0; i < 13; i++ {
		s.post(leo, cats, fmt.Sprintf("post %d", i))
	}

	for _, base := range []string{"/", "/group/cats/", "/profile/leo/"} {
		t.Run(base, func(t *testing.T) {
			tests := []struct {
				query  string
				want   int
				number int
			}{
				{"", 10, 1},
				{"?page=2", 3, 2},
				{"?page=99", 3, 2},
				{"?page=oops", 10, 1},
				{"?page=-1", 3, 2},
				{"?page=99999999999999999999", 3, 2},
			}
			for _, tt := range tests {
				w := s.get(base+tt.query, nil)
				require.Equal(t, http.StatusOK, w.Code)
				page := field[pageResp](t, decodeView(t, w), "page_obj")
				assert.Len(t, page.Items, tt.want, tt.query)
				assert.Equal(t, tt.number, page.Number, tt.query)
				assert.Equal(t, 2, page.NumPages)
				assert.Equal(t, 13, page.Count)
				assert.Equal(t, tt.number == 1, page.HasNext, tt.query)
				assert.Equal(t, tt.number == 2, page.HasPrevious, tt.query)
			}
		})
	}
}

func TestIndexNewestFirst(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	first := s.post(leo, nil, "first")
	second := s.post(leo, nil, "second")

	v := decodeView(t, s.get("/", nil))
	assert.Equal(t, "posts/index", v.View)
	page := field[pageResp](t, v, "page_obj")
	assert.Equal(t, []uint{second.ID, first.ID}, postIDs(page))
	assert.Equal(t, "leo", page.Items[0].Author.Username)
}

func TestIndexCacheServesStalePages(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	s.post(leo, nil, "one")
	s.post(leo, nil, "two")

	before := s.get("/", nil)
	require.Equal(t, http.StatusOK, before.Code)
	require.Len(t, field[pageResp](t, decodeView(t, before), "page_obj").Items, 2)

	_, err := s.repo.DeletePosts(context.Background())
	require.NoError(t, err)

	stale := s.get("/", nil)
	assert.Equal(t, before.Body.String(), stale.Body.String())

	require.NoError(t, s.cache.Clear(context.Background()))

	fresh := s.get("/", nil)
	assert.NotEqual(t, before.Body.String(), fresh.Body.String())
	assert.Empty(t, field[pageResp](t, decodeView(t, fresh), "page_obj").Items)
}

func TestIndexCacheExpires(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")

	before := s.get("/", nil)
	s.post(leo, nil, "late")

	s.now = s.now.Add(19 * time.Second)
	assert.Equal(t, before.Body.String(), s.get("/", nil).Body.String())

	s.now = s.now.Add(2 * time.Second)
	page := field[pageResp](t, decodeView(t, s.get("/", nil)), "page_obj")
	assert.Len(t, page.Items, 1)
}

func TestIndexCacheIsPerPage(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	for i := 0; i < 11; i++ {
		s.post(leo, nil, fmt.Sprintf("post %d", i))
	}

	one := field[pageResp](t, decodeView(t, s.get("/?page=1", nil)), "page_obj")
	two := field[pageResp](t, decodeView(t, s.get("/?page=2", nil)), "page_obj")
	assert.Len(t, one.Items, 10)
	assert.Len(t, two.Items, 1)
	assert.Equal(t, 2, s.cache.Len())
}

func TestIndexCacheKeysAreBounded(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	for i := 0; i < 11; i++ {
		s.post(leo, nil, fmt.Sprintf("post %d", i))
	}

	for i := 0; i < 500; i++ {
		w := s.get(fmt.Sprintf("/?page=junk%d", i), nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 1, s.cache.Len())

	for _, raw := range []string{"0", "-7", "99999999999999999999", "-99999999999999999999"} {
		page := field[pageResp](t, decodeView(t, s.get("/?page="+raw, nil)), "page_obj")
		assert.Equal(t, 2, page.Number, raw)
	}
	assert.Equal(t, 2, s.cache.Len())

	for i := 3; i < 103; i++ {
		s.get(fmt.Sprintf("/?page=%d", i), nil)
	}
	assert.Equal(t, 102, s.cache.Len())

	// expired pages are swept on the next write
	s.now = s.now.Add(cache.SweepInterval + time.Second)
	s.get("/", nil)
	assert.Equal(t, 1, s.cache.Len())
}

func TestPostDetailShowsComments(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	anna := s.user("anna")
	p := s.post(leo, nil, "hello")

	w := s.postForm(fmt.Sprintf("/posts/%d/comment/", p.ID), url.Values{"text": {"nice one"}}, anna)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", p.ID), w.Header().Get("Location"))

	v := decodeView(t, s.get(fmt.Sprintf("/posts/%d/", p.ID), nil))
	assert.Equal(t, "posts/post_detail", v.View)
	assert.Equal(t, "hello", field[postResp](t, v, "post").Text)
	assert.False(t, field[bool](t, v, "can_edit"))

	comments := field[[]struct {
		Text   string `json:"text"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	}](t, v, "comments")
	require.Len(t, comments, 1)
	assert.Equal(t, "nice one", comments[0].Text)
	assert.Equal(t, "anna", comments[0].Author.Username)

	v = decodeView(t, s.get(fmt.Sprintf("/posts/%d/", p.ID), leo))
	assert.True(t, field[bool](t, v, "can_edit"))
}

func TestGuestCannotComment(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	p := s.post(leo, nil, "hello")
	path := fmt.Sprintf("/posts/%d/comment/", p.ID)

	w := s.postForm(path, url.Values{"text": {"anonymous"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, loginRedirect(path), w.Header().Get("Location"))

	comments, err := s.repo.ListComments(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestBlankCommentRedisplaysDetail(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	p := s.post(leo, nil, "hello")

	w := s.postForm(fmt.Sprintf("/posts/%d/comment/", p.ID), url.Values{"text": {"   "}}, leo)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	v := decodeView(t, w)
	assert.Equal(t, "posts/post_detail", v.View)
	assert.Contains(t, field[forms.Errors](t, v, "errors"), "text")

	w = s.postForm("/posts/999/comment/", url.Values{"text": {"x"}}, leo)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePostRoundTrip(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	cats := s.group("cats")

	w := s.postMultipart("/create/", map[string]string{
		"text":  "  Cats are great  ",
		"group": fmt.Sprint(cats.ID),
	}, &upload{field: "image", filename: "small.gif", content: smallGIF}, leo)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/profile/leo/", w.Header().Get("Location"))

	page, err := s.repo.ListByAuthor(context.Background(), leo, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	id := page.Items[0].ID

	v := decodeView(t, s.get(fmt.Sprintf("/posts/%d/", id), nil))
	post := field[postResp](t, v, "post")
	assert.Equal(t, "Cats are great", post.Text)
	require.NotNil(t, post.Group)
	assert.Equal(t, "cats", post.Group.Slug)
	assert.Equal(t, "posts/small.gif", post.Image)

	data, err := os.ReadFile(s.env.Media.Path(post.Image))
	require.NoError(t, err)
	assert.Equal(t, smallGIF, data)

	img := s.get("/media/"+post.Image, nil)
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, smallGIF, img.Body.Bytes())

	group := field[pageResp](t, decodeView(t, s.get("/group/cats/", nil)), "page_obj")
	assert.Equal(t, []uint{id}, postIDs(group))
}

func TestCreatePostValidation(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")

	tests := []struct {
		name   string
		values map[string]string
		file   *upload
		field  string
	}{
		{"blank text", map[string]string{"text": " "}, nil, "text"},
		{"unknown group", map[string]string{"text": "x", "group": "999"}, nil, "group"},
		{"malformed group", map[string]string{"text": "x", "group": "cats"}, nil, "group"},
		{"not an image", map[string]string{"text": "x"}, &upload{field: "image", filename: "notes.txt", content: []byte("plain text")}, "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.postMultipart("/create/", tt.values, tt.file, leo)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			v := decodeView(t, w)
			assert.Equal(t, "posts/create_post", v.View)
			assert.False(t, field[bool](t, v, "is_edit"))
			assert.Contains(t, field[forms.Errors](t, v, "errors"), tt.field)
		})
	}

	page, err := s.repo.ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestCreateRequiresLogin(t *testing.T) {
	s := newServer(t)

	w := s.get("/create/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, loginRedirect("/create/"), w.Header().Get("Location"))

	w = s.postForm("/create/", url.Values{"text": {"sneaky"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)

	page, err := s.repo.ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestCreateFormListsGroups(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	s.group("cats")
	s.group("dogs")

	w := s.get("/create/", leo)
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	assert.Equal(t, "posts/create_post", v.View)
	assert.Len(t, field[[]map[string]any](t, v, "groups"), 2)
}

func TestEditByNonAuthorRedirects(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	anna := s.user("anna")
	p := s.post(leo, nil, "original")
	path := fmt.Sprintf("/posts/%d/edit/", p.ID)

	w := s.get(path, anna)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", p.ID), w.Header().Get("Location"))

	w = s.postForm(path, url.Values{"text": {"hijacked"}}, anna)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", p.ID), w.Header().Get("Location"))

	got, err := s.repo.GetPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Text)
	assert.Equal(t, leo.ID, got.AuthorID)

	w = s.get(path, nil)
	assert.Equal(t, loginRedirect(path), w.Header().Get("Location"))
}

func TestEditByAuthor(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	cats := s.group("cats")
	p := s.post(leo, cats, "draft")
	path := fmt.Sprintf("/posts/%d/edit/", p.ID)

	w := s.get(path, leo)
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	assert.True(t, field[bool](t, v, "is_edit"))
	form := field[forms.PostForm](t, v, "form")
	assert.Equal(t, "draft", form.Text)
	assert.Equal(t, fmt.Sprint(cats.ID), form.Group)

	w = s.postMultipart(path, map[string]string{"text": "final"}, &upload{field: "image", filename: "small.gif", content: smallGIF}, leo)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, fmt.Sprintf("/posts/%d/", p.ID), w.Header().Get("Location"))

	got, err := s.repo.GetPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, "posts/small.gif", got.Image)

	// keeps the image when none is uploaded
	w = s.postForm(path, url.Values{"text": {"again"}}, leo)
	require.Equal(t, http.StatusFound, w.Code)
	got, err = s.repo.GetPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "posts/small.gif", got.Image)

	w = s.postForm(path, url.Values{"text": {"again"}, "image-clear": {"on"}}, leo)
	require.Equal(t, http.StatusFound, w.Code)
	got, err = s.repo.GetPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Image)

	w = s.postForm(path, url.Values{"text": {""}}, leo)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	got, err = s.repo.GetPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "again", got.Text)
}

func failWrites(t *testing.T, s *server, table string) {
	t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("disk full"))
		}
	}
	require.NoError(t, s.conn.Callback().Create().Before("gorm:create").Register("test:fail_create", fail))
	require.NoError(t, s.conn.Callback().Update().Before("gorm:update").Register("test:fail_update", fail))
}

func TestFailedSaveRemovesUploadedImage(t *testing.T) {
	s := newServer(t)
	leo := s.user("leo")
	p := s.post(leo, nil, "draft")
	failWrites(t, s, "posts")

	gif := &upload{field: "image", filename: "small.gif", content: smallGIF}

	w := s.postMultipart("/create/", map[string]string{"text": "new"}, gif, leo)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = s.postMultipart(fmt.Sprintf("/posts/%d/edit/", p.ID), map[string]string{"text": "final"}, gif, leo)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	files, err := os.ReadDir(filepath.Join(s.env.Media.Root(), media.PostsDir))
	require.NoError(t, err)
	assert.Empty(t, files)

	got, err := s.repo.GetPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", got.Text)
	assert.Empty(t, got.Image)
}
