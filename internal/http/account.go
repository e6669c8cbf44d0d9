package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/yatube/internal/auth"
	"github.com/sujalbistaa/yatube/internal/forms"
	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/repository"
)

const msgBadLogin = "Please enter a correct username and password. Note that both fields may be case-sensitive."

func (e *Env) sessionCookie(sess *models.Session) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.Key,
		Path:     "/",
		MaxAge:   int(e.Auth.TTL() / time.Second),
		HttpOnly: true,
		Secure:   e.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// Signup registers a user and logs them in.
func (e *Env) Signup(r *Request) Outcome {
	var form forms.SignupForm
	if err := r.Bind(&form); err != nil {
		return Invalid("users/signup", gin.H{"form": form, "errors": forms.Errors{forms.NonField: {err.Error()}}})
	}
	if errs := form.Validate(); errs.Any() {
		return Invalid("users/signup", gin.H{"form": form, "errors": errs})
	}

	user, err := e.Auth.Register(r.Ctx, form.Username, form.Password, form.FirstName, form.LastName)
	if errors.Is(err, repository.ErrConflict) {
		errs := forms.Errors{}
		errs.Add("username", "A user with that username already exists.")
		return Invalid("users/signup", gin.H{"form": form, "errors": errs})
	}
	if err != nil {
		return Fail(err)
	}

	sess, err := e.Auth.Open(r.Ctx, user)
	if err != nil {
		return Fail(err)
	}
	e.Log.Infow("User registered", "username", user.Username)
	return Redirect("/").WithCookie(e.sessionCookie(sess))
}

// Login shows the login prompt on GET and opens a session on POST.
func (e *Env) Login(r *Request) Outcome {
	var form forms.LoginForm
	if err := r.Bind(&form); err != nil {
		return Invalid("users/login", gin.H{"form": form, "errors": forms.Errors{forms.NonField: {err.Error()}}})
	}
	if !r.IsPost() {
		return Render("users/login", gin.H{"form": form})
	}

	if errs := form.Validate(); errs.Any() {
		return Invalid("users/login", gin.H{"form": form, "errors": errs})
	}

	sess, err := e.Auth.Login(r.Ctx, form.Username, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		errs := forms.Errors{}
		errs.Add(forms.NonField, msgBadLogin)
		return Invalid("users/login", gin.H{"form": form, "errors": errs})
	}
	if err != nil {
		return Fail(err)
	}
	return Redirect(safeNext(form.Next)).WithCookie(e.sessionCookie(sess))
}

// Logout ends the current session, if any.
func (e *Env) Logout(r *Request) Outcome {
	if key := r.Cookie(auth.CookieName); key != "" {
		if err := e.Auth.Logout(r.Ctx, key); err != nil {
			return Fail(err)
		}
	}
	return Redirect("/").WithCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   e.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
