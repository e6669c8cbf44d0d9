package http

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/yatube/internal/forms"
	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/repository"
)

// LoginURL is where anonymous visitors are sent when a view needs a user.
const LoginURL = "/auth/login/"

const actorKey = "yatube.actor"

// Request is what a use-case sees of an incoming HTTP request.
type Request struct {
	Ctx   context.Context
	Path  string
	Actor *models.User
	Page  string

	c *gin.Context
}

func newRequest(c *gin.Context) *Request {
	r := &Request{
		Ctx:  c.Request.Context(),
		Path: c.Request.URL.RequestURI(),
		Page: c.Query("page"),
		c:    c,
	}
	if v, ok := c.Get(actorKey); ok {
		r.Actor, _ = v.(*models.User)
	}
	return r
}

func (r *Request) Param(name string) string {
	return r.c.Param(name)
}

// ID parses a numeric path parameter. ok is false for anything that is not
// a positive integer.
func (r *Request) ID(name string) (uint, bool) {
	id, err := strconv.ParseUint(r.c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (r *Request) IsPost() bool {
	return r.c.Request.Method == http.MethodPost
}

// Bind fills a form struct from the query string and the request body
// (urlencoded or multipart). Rule violations are left to the form's Validate,
// which runs after trimming.
func (r *Request) Bind(form any) error {
	if err := r.c.ShouldBind(form); err != nil && !forms.IsValidationError(err) {
		return err
	}
	return nil
}

// Cookie returns the named cookie value, or "" when it is absent.
func (r *Request) Cookie(name string) string {
	v, _ := r.c.Cookie(name)
	return v
}

// File returns the uploaded file for field, or nil when none was sent.
func (r *Request) File(field string) *multipart.FileHeader {
	fh, err := r.c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}

// Outcome is the result of a use-case. Exactly one of View/Body/Location
// is meaningful depending on Status.
type Outcome struct {
	Status   int
	View     string
	Data     any
	Body     []byte // pre-encoded view, served as is
	Location string
	Cookies  []*http.Cookie
	Err      error
}

// WithCookie adds a cookie to be set on the response.
func (o Outcome) WithCookie(ck *http.Cookie) Outcome {
	o.Cookies = append(o.Cookies, ck)
	return o
}

func Render(view string, data any) Outcome {
	return Outcome{Status: http.StatusOK, View: view, Data: data}
}

// Invalid redisplays a form together with its field errors.
func Invalid(view string, data any) Outcome {
	return Outcome{Status: http.StatusBadRequest, View: view, Data: data}
}

func Redirect(location string) Outcome {
	return Outcome{Status: http.StatusFound, Location: location}
}

func RedirectToLogin(r *Request) Outcome {
	return Redirect(LoginURL + "?next=" + url.QueryEscape(r.Path))
}

func NotFound() Outcome {
	return Outcome{Status: http.StatusNotFound, View: "core/404"}
}

func Fail(err error) Outcome {
	return Outcome{Status: http.StatusInternalServerError, Err: err}
}

// FromError maps a storage error to not-found or a failed request.
func FromError(err error) Outcome {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound()
	}
	return Fail(err)
}

type viewBody struct {
	View    string `json:"view"`
	Context any    `json:"context"`
}

func encodeView(view string, data any) ([]byte, error) {
	if data == nil {
		data = gin.H{}
	}
	return json.Marshal(viewBody{View: view, Context: data})
}

// UseCase is a request handler that only produces an Outcome.
type UseCase func(*Request) Outcome

// handle adapts a UseCase to gin and writes its Outcome.
func (e *Env) handle(uc UseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		e.write(c, uc(newRequest(c)))
	}
}

func (e *Env) write(c *gin.Context, out Outcome) {
	for _, ck := range out.Cookies {
		http.SetCookie(c.Writer, ck)
	}
	switch {
	case out.Status == http.StatusInternalServerError || out.Err != nil:
		e.Log.Errorw("Request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", out.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	case out.Location != "":
		c.Redirect(out.Status, out.Location)
	case out.Body != nil:
		c.Data(out.Status, "application/json; charset=utf-8", out.Body)
	default:
		data := out.Data
		if out.Status == http.StatusNotFound && data == nil {
			data = gin.H{"path": c.Request.URL.Path}
		}
		body, err := encodeView(out.View, data)
		if err != nil {
			e.write(c, Fail(err))
			return
		}
		c.Data(out.Status, "application/json; charset=utf-8", body)
	}
}
