package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sujalbistaa/yatube/internal/auth"
	"github.com/sujalbistaa/yatube/internal/cache"
	"github.com/sujalbistaa/yatube/internal/db"
	"github.com/sujalbistaa/yatube/internal/media"
	"github.com/sujalbistaa/yatube/internal/metrics"
	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/repository"
)

const testAdminToken = "test-admin-token"

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type server struct {
	t      *testing.T
	env    *Env
	conn   *gorm.DB
	repo   *repository.Repository
	cache  *cache.Memory
	router *gin.Engine
	now    time.Time
}

func newServer(t *testing.T) *server {
	return newServerWithOptions(t, RouteOptions{AdminToken: testAdminToken})
}

func newServerWithOptions(t *testing.T, opts RouteOptions) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(db.Options{URL: "sqlite://" + filepath.Join(t.TempDir(), "http.db")}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	s := &server{t: t, conn: conn, repo: repository.New(conn), now: time.Now()}
	s.cache = cache.NewMemory(cache.WithClock(func() time.Time { return s.now }))

	m, handler, err := metrics.Setup("yatube")
	require.NoError(t, err)
	if opts.Metrics == nil {
		opts.Metrics = handler
	}

	s.env = &Env{
		Repo:     s.repo,
		Cache:    s.cache,
		Media:    media.NewStorage(t.TempDir()),
		Auth:     auth.NewService(s.repo, time.Hour, auth.WithCost(bcrypt.MinCost)),
		Log:      zap.NewNop().Sugar(),
		Metrics:  m,
		IndexTTL: 20 * time.Second,
	}
	s.router = gin.New()
	SetupRoutes(s.router, s.env, opts)
	return s
}

func (s *server) user(username string) *models.User {
	s.t.Helper()
	u, err := s.env.Auth.Register(context.Background(), username, "password-"+username, "", "")
	require.NoError(s.t, err)
	return u
}

func (s *server) group(slug string) *models.Group {
	s.t.Helper()
	g := &models.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(s.t, s.repo.CreateGroup(context.Background(), g))
	return g
}

func (s *server) post(author *models.User, group *models.Group, text string) *models.Post {
	s.t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(s.t, s.repo.CreatePost(context.Background(), p))
	return p
}

// do serves req, logged in as user when it is not nil.
func (s *server) do(req *http.Request, user *models.User) *httptest.ResponseRecorder {
	s.t.Helper()
	if user != nil {
		sess, err := s.env.Auth.Open(context.Background(), user)
		require.NoError(s.t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: sess.Key})
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) get(path string, user *models.User) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil), user)
}

func (s *server) postForm(path string, values url.Values, user *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, user)
}

type upload struct {
	field    string
	filename string
	content  []byte
}

func (s *server) postMultipart(path string, values map[string]string, file *upload, user *models.User) *httptest.ResponseRecorder {
	s.t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(s.t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile(file.field, file.filename)
		require.NoError(s.t, err)
		_, err = part.Write(file.content)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(req, user)
}

type viewResp struct {
	View    string                     `json:"view"`
	Context map[string]json.RawMessage `json:"context"`
}

type postResp struct {
	ID     uint   `json:"id"`
	Text   string `json:"text"`
	Image  string `json:"image"`
	Author struct {
		Username string `json:"username"`
	} `json:"author"`
	Group *struct {
		Slug string `json:"slug"`
	} `json:"group"`
}

type pageResp struct {
	Number      int        `json:"number"`
	NumPages    int        `json:"numPages"`
	Count       int        `json:"count"`
	HasNext     bool       `json:"hasNext"`
	HasPrevious bool       `json:"hasPrevious"`
	Items       []postResp `json:"objectList"`
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) viewResp {
	t.Helper()
	var v viewResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// field decodes one context entry of a rendered view.
func field[T any](t *testing.T, v viewResp, key string) T {
	t.Helper()
	var out T
	raw, ok := v.Context[key]
	require.True(t, ok, "context has no %q", key)
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func postIDs(page pageResp) []uint {
	out := make([]uint, len(page.Items))
	for i, p := range page.Items {
		out[i] = p.ID
	}
	return out
}

func loginRedirect(path string) string {
	return LoginURL + "?next=" + url.QueryEscape(path)
}
