package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/teacher-portal/internal/model"
)

// SessionRepo persists session tokens (one row per issued token).
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Insert stores a freshly issued token.
func (r *SessionRepo) Insert(ctx context.Context, teacherID uint64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO session_tokens (teacher_id, token, expires_at, is_active) VALUES (?,?,?,?)",
		teacherID, token, expiresAt, true)
	return err
}

// GetByToken looks up a token row. Absence maps to ErrNotFound.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (model.SessionToken, error) {
	var st model.SessionToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, teacher_id, token, created_at, expires_at, is_active FROM session_tokens WHERE token=? LIMIT 1",
		token).Scan(&st.ID, &st.TeacherID, &st.Token, &st.CreatedAt, &st.ExpiresAt, &st.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionToken{}, ErrNotFound
	}
	return st, err
}

// DeleteByToken removes a token row. Deleting an absent token is not an
// error; revocation is idempotent.
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM session_tokens WHERE token=?", token)
	return err
}

// DeleteAllForTeacher removes every token owned by a teacher, enforcing the
// single-active-session rule before a new token is inserted.
func (r *SessionRepo) DeleteAllForTeacher(ctx context.Context, teacherID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM session_tokens WHERE teacher_id=?", teacherID)
	return err
}
