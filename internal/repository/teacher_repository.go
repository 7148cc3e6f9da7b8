package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/teacher-portal/internal/model"
)

// TeacherRepo reads and writes the 'teachers' table.
type TeacherRepo struct{ DB *sql.DB }

func NewTeacherRepo(db *sql.DB) *TeacherRepo { return &TeacherRepo{DB: db} }

var ErrUsernameExists = errors.New("username already exists")

// Create inserts a teacher with precomputed password material and returns
// the new ID.
func (r *TeacherRepo) Create(ctx context.Context, username, passwordHash, salt string) (uint64, error) {
	username = strings.TrimSpace(username)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO teachers (username, password_hash, salt) VALUES (?,?,?)",
		username, passwordHash, salt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a teacher by exact username. Absence maps to
// ErrNotFound so callers never branch on driver errors.
func (r *TeacherRepo) GetByUsername(ctx context.Context, username string) (model.Teacher, error) {
	var t model.Teacher
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, salt, created_at FROM teachers WHERE username=? LIMIT 1",
		username).Scan(&t.ID, &t.Username, &t.PasswordHash, &t.Salt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Teacher{}, ErrNotFound
	}
	return t, err
}

// GetByID fetches a teacher by id.
func (r *TeacherRepo) GetByID(ctx context.Context, id uint64) (model.Teacher, error) {
	var t model.Teacher
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, salt, created_at FROM teachers WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.Username, &t.PasswordHash, &t.Salt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Teacher{}, ErrNotFound
	}
	return t, err
}

// UpdatePassword overwrites the stored hash and salt.
func (r *TeacherRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash, salt string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE teachers SET password_hash=?, salt=? WHERE id=?",
		passwordHash, salt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
