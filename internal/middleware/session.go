// Package middleware holds the request-intercepting policy layers: the
// session auth gate, the anti-forgery check for the JSON API, and the Redis
// login throttle.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teacher-portal/internal/model"
	"github.com/iliyamo/teacher-portal/internal/session"
)

// TeacherContextKey is the echo context key under which the gate attaches
// the authenticated teacher. Handlers trust this value unconditionally and
// never re-check credentials.
const TeacherContextKey = "teacher"

// Paths passing the gate without a session. The admin console under /admin/
// runs its own authentication and is deliberately not gated here.
var excludedPrefixes = []string{"/login", "/static/", "/healthz"}

const adminPrefix = "/admin/"

// SessionValidator resolves a raw session token to its owning teacher.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (model.Teacher, error)
}

// SessionAuth is the single authorization checkpoint. It runs once per
// request before any business handler: excluded and admin paths pass
// through; otherwise the session token is validated and the teacher identity
// attached, or all session state is cleared and the client redirected to the
// login page.
func SessionAuth(store *session.Store, sessions SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, p := range excludedPrefixes {
				if path == p || strings.HasPrefix(path, p) {
					return next(c)
				}
			}
			if strings.HasPrefix(path, adminPrefix) {
				return next(c)
			}

			token := store.Token(c.Request())
			if token == "" {
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			teacher, err := sessions.Validate(ctx, token)
			if err != nil {
				// Stale, expired or forged token: drop every bit of session
				// state before bouncing to login.
				_ = store.Clear(c.Request(), c.Response())
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			c.Set(TeacherContextKey, teacher)
			return next(c)
		}
	}
}

// CurrentTeacher returns the identity attached by SessionAuth.
func CurrentTeacher(c echo.Context) (model.Teacher, bool) {
	t, ok := c.Get(TeacherContextKey).(model.Teacher)
	return t, ok
}
