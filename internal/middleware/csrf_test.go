package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/teacher-portal/internal/session"
)

const csrfSecret = "csrf-test-secret"

func runCSRF(t *testing.T, store *session.Store, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	next := func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, CSRF(csrfSecret, store)(next)(c))
	return rec, reached
}

func TestCSRF_SafeMethodsPass(t *testing.T) {
	store := session.NewStore("secret")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, reached := runCSRF(t, store, req)
	assert.True(t, reached)
}

func TestCSRF_MissingTokenRejected(t *testing.T) {
	store := session.NewStore("secret")
	req := httptest.NewRequest(http.MethodPost, "/api/add-student", nil)
	rec, reached := runCSRF(t, store, req)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_TokenBoundToSessionPasses(t *testing.T) {
	store := session.NewStore("secret")
	token, err := IssueCSRFToken(csrfSecret, "session-token", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/add-student", nil)
	req.AddCookie(sessionCookie(t, store, "session-token"))
	req.Header.Set("X-CSRF-Token", token)

	_, reached := runCSRF(t, store, req)
	assert.True(t, reached)
}

func TestCSRF_TokenForOtherSessionRejected(t *testing.T) {
	store := session.NewStore("secret")
	token, err := IssueCSRFToken(csrfSecret, "someone-elses-session", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/add-student", nil)
	req.AddCookie(sessionCookie(t, store, "session-token"))
	req.Header.Set("X-CSRF-Token", token)

	rec, reached := runCSRF(t, store, req)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_TamperedSignatureRejected(t *testing.T) {
	store := session.NewStore("secret")
	token, err := IssueCSRFToken("some-other-secret", "session-token", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/add-student", nil)
	req.AddCookie(sessionCookie(t, store, "session-token"))
	req.Header.Set("X-CSRF-Token", token)

	rec, reached := runCSRF(t, store, req)
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_FormFieldAccepted(t *testing.T) {
	store := session.NewStore("secret")
	token, err := IssueCSRFToken(csrfSecret, "session-token", time.Hour)
	require.NoError(t, err)

	form := "csrf_token=" + token
	req := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(sessionCookie(t, store, "session-token"))

	_, reached := runCSRF(t, store, req)
	assert.True(t, reached)
}
