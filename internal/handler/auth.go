package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teacher-portal/internal/auth"
	"github.com/iliyamo/teacher-portal/internal/config"
	"github.com/iliyamo/teacher-portal/internal/middleware"
	"github.com/iliyamo/teacher-portal/internal/session"
)

// AuthHandler bundles dependencies for the login/logout flow.
type AuthHandler struct {
	Cfg      config.Config
	Store    *session.Store
	Sessions *auth.SessionManager
	Creds    *auth.Credentials
}

func NewAuthHandler(cfg config.Config, store *session.Store, sessions *auth.SessionManager, creds *auth.Credentials) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Store: store, Sessions: sessions, Creds: creds}
}

// LoginPage serves the login prompt. An already-authenticated visitor is
// sent home instead. Page rendering lives outside this service; the handler
// answers with the data the login page needs, error message included.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	if token := h.Store.Token(c.Request()); token != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if _, err := h.Sessions.Validate(ctx, token); err == nil {
			return c.Redirect(http.StatusSeeOther, "/")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"page":  "login",
		"error": loginErrorMessage(c.QueryParam("error")),
	})
}

// Login verifies the submitted credentials and opens a session. The failure
// message is identical for an unknown username and a wrong password.
func (h *AuthHandler) Login(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	if username == "" || password == "" {
		return c.Redirect(http.StatusSeeOther, "/login?error=missing_fields")
	}
	if strings.ContainsAny(username, `<>"'`) {
		return c.Redirect(http.StatusSeeOther, "/login?error=invalid_credentials")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	teacher, err := h.Creds.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return c.Redirect(http.StatusSeeOther, "/login?error=invalid_credentials")
		}
		log.Printf("login: verify failed: %v", err)
		return c.Redirect(http.StatusSeeOther, "/login?error=server_error")
	}

	token, err := h.Sessions.Create(ctx, teacher.ID)
	if err != nil {
		log.Printf("login: create session failed: %v", err)
		return c.Redirect(http.StatusSeeOther, "/login?error=server_error")
	}
	if err := h.Store.SaveToken(c.Request(), c.Response(), token); err != nil {
		log.Printf("login: save session failed: %v", err)
		return c.Redirect(http.StatusSeeOther, "/login?error=server_error")
	}

	if err := h.issueCSRF(c, token); err != nil {
		log.Printf("login: issue csrf token failed: %v", err)
		return c.Redirect(http.StatusSeeOther, "/login?error=server_error")
	}

	return c.Redirect(http.StatusSeeOther, "/")
}

// issueCSRF binds a fresh anti-forgery token to the session token and hands
// it to the client in a cookie.
func (h *AuthHandler) issueCSRF(c echo.Context, token string) error {
	csrf, err := middleware.IssueCSRFToken(h.Cfg.CSRFSecret, token, auth.SessionTTL)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.CSRFCookieName,
		Value:    csrf,
		Path:     "/",
		Expires:  time.Now().Add(auth.SessionTTL),
		SameSite: http.SameSiteLaxMode,
		// Readable by the frontend so it can echo the value in X-CSRF-Token.
		HttpOnly: false,
	})
	return nil
}

// Logout revokes the current session token and clears all session state.
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := h.Store.Token(c.Request()); token != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Sessions.Revoke(ctx, token); err != nil {
			log.Printf("logout: revoke failed: %v", err)
		}
	}
	_ = h.Store.Clear(c.Request(), c.Response())
	c.SetCookie(&http.Cookie{
		Name:    middleware.CSRFCookieName,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
	return c.Redirect(http.StatusSeeOther, "/login")
}

// loginErrorMessage maps the error query parameter to the text shown on the
// login page. Unknown user and wrong password share one message so usernames
// cannot be enumerated.
func loginErrorMessage(code string) string {
	switch code {
	case "":
		return ""
	case "missing_fields":
		return "Username and password are required"
	case "server_error":
		return "Something went wrong, please try again"
	default:
		return "Invalid credentials"
	}
}
