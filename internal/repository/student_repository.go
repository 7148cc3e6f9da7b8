package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/teacher-portal/internal/model"
)

// StudentRepo provides reads and transactional writes for the 'students'
// table. Mutating methods take a *sql.Tx so the caller can pair each write
// with its audit entry inside one transaction; the caller commits or rolls
// back.
type StudentRepo struct{ DB *sql.DB }

func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{DB: db} }

// List returns all students ordered by (name, subject) ascending.
func (r *StudentRepo) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, subject, marks, created_at, updated_at FROM students ORDER BY name ASC, subject ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Subject, &s.Marks, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetByNameSubjectTx loads the row for a (name, subject) pair and locks it
// for the duration of the transaction, protecting the read-modify-write
// sequence of a merge.
func (r *StudentRepo) GetByNameSubjectTx(ctx context.Context, tx *sql.Tx, name, subject string) (model.Student, error) {
	var s model.Student
	err := tx.QueryRowContext(ctx,
		"SELECT id, name, subject, marks, created_at, updated_at FROM students WHERE name=? AND subject=? LIMIT 1 FOR UPDATE",
		name, subject).Scan(&s.ID, &s.Name, &s.Subject, &s.Marks, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Student{}, ErrNotFound
	}
	return s, err
}

// GetByIDTx loads and locks a student row by id.
func (r *StudentRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Student, error) {
	var s model.Student
	err := tx.QueryRowContext(ctx,
		"SELECT id, name, subject, marks, created_at, updated_at FROM students WHERE id=? LIMIT 1 FOR UPDATE",
		id).Scan(&s.ID, &s.Name, &s.Subject, &s.Marks, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Student{}, ErrNotFound
	}
	return s, err
}

// InsertTx creates a student row and returns its id.
func (r *StudentRepo) InsertTx(ctx context.Context, tx *sql.Tx, name, subject string, marks int) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO students (name, subject, marks) VALUES (?,?,?)",
		name, subject, marks)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UpdateMarksTx sets a student's marks.
func (r *StudentRepo) UpdateMarksTx(ctx context.Context, tx *sql.Tx, id uint64, marks int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE students SET marks=? WHERE id=?", marks, id)
	return err
}

// DeleteTx removes a student row.
func (r *StudentRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"DELETE FROM students WHERE id=?", id)
	return err
}
