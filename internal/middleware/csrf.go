package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teacher-portal/internal/session"
)

// CSRFCookieName is the non-HttpOnly cookie the login handler sets so the
// frontend can echo the token back on mutating requests.
const CSRFCookieName = "csrf_token"

const csrfHeader = "X-CSRF-Token"

// IssueCSRFToken signs an anti-forgery token bound to the session it was
// issued for. The claim holds a hash of the session token, never the token
// itself, so the CSRF cookie being readable by scripts leaks nothing usable.
func IssueCSRFToken(secret, sessionToken string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sid": bindSession(sessionToken),
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// CSRF enforces the anti-forgery precondition on mutating requests: the
// submitted token must carry a valid signature and must be bound to the
// request's own session. Runs after SessionAuth. Safe methods pass through.
func CSRF(secret string, store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			raw := c.Request().Header.Get(csrfHeader)
			if raw == "" {
				raw = c.FormValue(CSRFCookieName)
			}
			if raw == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "missing csrf token"})
			}

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrForbidden
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid csrf token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid csrf token"})
			}
			sid, _ := claims["sid"].(string)
			if sid == "" || sid != bindSession(store.Token(c.Request())) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "csrf token does not match session"})
			}
			return next(c)
		}
	}
}

func bindSession(sessionToken string) string {
	sum := sha256.Sum256([]byte(sessionToken))
	return hex.EncodeToString(sum[:])
}
