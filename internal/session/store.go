// Package session keeps per-request session state in a signed cookie. The
// only value stored client-side is the opaque auth token; everything it
// refers to lives in the database.
package session

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/iliyamo/teacher-portal/internal/auth"
)

const (
	cookieName = "portal-session"
	tokenKey   = "auth_token"
)

// Store wraps a gorilla cookie store with the three operations the portal
// needs: read the token, save a new one, and wipe the whole session.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore builds a Store signing cookies with the given secret.
func NewStore(secret string) *Store {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(auth.SessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cs}
}

// Token returns the auth token carried by the request's session, or "" when
// the session is absent or carries none. A tampered cookie decodes to a
// fresh empty session, which also yields "".
func (s *Store) Token(r *http.Request) string {
	sess, _ := s.cookies.Get(r, cookieName)
	token, _ := sess.Values[tokenKey].(string)
	return token
}

// SaveToken stores the auth token in the session cookie.
func (s *Store) SaveToken(r *http.Request, w http.ResponseWriter, token string) error {
	sess, _ := s.cookies.Get(r, cookieName)
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// Clear drops every session value and expires the cookie. Used when a
// request carries a stale or invalid token and on logout.
func (s *Store) Clear(r *http.Request, w http.ResponseWriter) error {
	sess, _ := s.cookies.Get(r, cookieName)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
