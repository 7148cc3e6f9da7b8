package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/iliyamo/teacher-portal/internal/model"
	"github.com/iliyamo/teacher-portal/internal/repository"
)

// SessionTTL is how long an issued token stays valid. Expiry is checked
// lazily on use; there is no background sweep.
const SessionTTL = 24 * time.Hour

const tokenBytes = 64

// SessionManager issues, validates and revokes DB-backed session tokens.
type SessionManager struct {
	Sessions *repository.SessionRepo
	Teachers *repository.TeacherRepo
}

func NewSessionManager(sessions *repository.SessionRepo, teachers *repository.TeacherRepo) *SessionManager {
	return &SessionManager{Sessions: sessions, Teachers: teachers}
}

// Create deletes every existing token owned by the teacher and issues a new
// one, so at most one session is active per teacher. Returns the raw token.
func (m *SessionManager) Create(ctx context.Context, teacherID uint64) (string, error) {
	if err := m.Sessions.DeleteAllForTeacher(ctx, teacherID); err != nil {
		return "", err
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := m.Sessions.Insert(ctx, teacherID, token, time.Now().UTC().Add(SessionTTL)); err != nil {
		return "", err
	}
	return token, nil
}

// Validate resolves a token to its owning teacher. An unknown token is
// ErrUnauthenticated; a known but inactive or expired token is deleted and
// also reported as ErrUnauthenticated.
func (m *SessionManager) Validate(ctx context.Context, token string) (model.Teacher, error) {
	st, err := m.Sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Teacher{}, ErrUnauthenticated
		}
		return model.Teacher{}, err
	}
	if !st.IsValid(time.Now().UTC()) {
		_ = m.Sessions.DeleteByToken(ctx, token)
		return model.Teacher{}, ErrUnauthenticated
	}
	t, err := m.Teachers.GetByID(ctx, st.TeacherID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Orphaned token, owner is gone. Purge it.
			_ = m.Sessions.DeleteByToken(ctx, token)
			return model.Teacher{}, ErrUnauthenticated
		}
		return model.Teacher{}, err
	}
	return t, nil
}

// Revoke deletes the token if present. Revoking an unknown token is a no-op.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	return m.Sessions.DeleteByToken(ctx, token)
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
