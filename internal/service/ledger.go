// Package service holds the portal's business logic: the grade ledger with
// its transactional mutate-and-audit rule, and the best-effort publisher
// that mirrors committed audit entries onto the message broker.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/teacher-portal/internal/model"
	"github.com/iliyamo/teacher-portal/internal/queue"
	"github.com/iliyamo/teacher-portal/internal/repository"
)

const (
	marksCeiling   = 100
	fieldMaxLength = 100
)

// GradeLedger owns student records and the merge-on-duplicate rule. Every
// mutation runs in one transaction together with exactly one audit entry:
// both commit or both roll back.
type GradeLedger struct {
	db       *sql.DB
	students *repository.StudentRepo
	audit    *repository.AuditRepo
	// publish, when set, is called after a successful commit. Failures are
	// the publisher's problem; they never affect the response.
	publish func(ctx context.Context, ev queue.AuditRecordedEvent) error
}

func NewGradeLedger(db *sql.DB, students *repository.StudentRepo, audit *repository.AuditRepo,
	publish func(ctx context.Context, ev queue.AuditRecordedEvent) error) *GradeLedger {
	return &GradeLedger{db: db, students: students, audit: audit, publish: publish}
}

// List returns all students ordered by (name, subject).
func (l *GradeLedger) List(ctx context.Context) ([]model.Student, error) {
	return l.students.List(ctx)
}

// AddOrMerge adds a student record. If a row with the same (name, subject)
// already exists the marks are added onto it, unless the sum would exceed
// the ceiling, in which case the whole operation is rejected and nothing
// changes. Returns a message distinguishing the created and updated cases.
func (l *GradeLedger) AddOrMerge(ctx context.Context, name, subject string, marks int, teacher model.Teacher, ip string) (string, error) {
	if err := validateMarks(marks); err != nil {
		return "", err
	}
	name = clampField(name)
	subject = clampField(subject)
	if name == "" || subject == "" {
		return "", &ValidationError{Msg: "Name and subject are required"}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := l.students.GetByNameSubjectTx(ctx, tx, name, subject)
	switch {
	case err == nil:
		total := existing.Marks + marks
		if total > marksCeiling {
			// Reject, don't cap. The caller sees current and attempted
			// values; the stored marks stay untouched.
			return "", &CapacityError{Current: existing.Marks, Attempted: marks}
		}
		if err := l.students.UpdateMarksTx(ctx, tx, existing.ID, total); err != nil {
			return "", fmt.Errorf("update marks: %w", err)
		}
		entry := l.newEntry(teacher, model.ActionUpdate, name, subject, &existing.Marks, &total, ip)
		if err := l.audit.InsertTx(ctx, tx, entry); err != nil {
			return "", fmt.Errorf("audit update: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
		l.publishEntry(ctx, entry)
		return fmt.Sprintf("Updated existing student. Marks increased from %d to %d", existing.Marks, total), nil

	case errors.Is(err, repository.ErrNotFound):
		if _, err := l.students.InsertTx(ctx, tx, name, subject, marks); err != nil {
			return "", fmt.Errorf("insert student: %w", err)
		}
		entry := l.newEntry(teacher, model.ActionCreate, name, subject, nil, &marks, ip)
		if err := l.audit.InsertTx(ctx, tx, entry); err != nil {
			return "", fmt.Errorf("audit create: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
		l.publishEntry(ctx, entry)
		return "Student added successfully", nil

	default:
		return "", fmt.Errorf("lookup student: %w", err)
	}
}

// UpdateMarks sets a student's marks to an absolute value.
func (l *GradeLedger) UpdateMarks(ctx context.Context, studentID uint64, marks int, teacher model.Teacher, ip string) (string, error) {
	if err := validateMarks(marks); err != nil {
		return "", err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	student, err := l.students.GetByIDTx(ctx, tx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("lookup student: %w", err)
	}
	if err := l.students.UpdateMarksTx(ctx, tx, studentID, marks); err != nil {
		return "", fmt.Errorf("update marks: %w", err)
	}
	entry := l.newEntry(teacher, model.ActionUpdate, student.Name, student.Subject, &student.Marks, &marks, ip)
	if err := l.audit.InsertTx(ctx, tx, entry); err != nil {
		return "", fmt.Errorf("audit update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	l.publishEntry(ctx, entry)
	return "Marks updated successfully", nil
}

// Delete removes a student. The audit entry capturing the pre-delete marks
// is written before the row goes, in the same transaction.
func (l *GradeLedger) Delete(ctx context.Context, studentID uint64, teacher model.Teacher, ip string) (string, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	student, err := l.students.GetByIDTx(ctx, tx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("lookup student: %w", err)
	}
	entry := l.newEntry(teacher, model.ActionDelete, student.Name, student.Subject, &student.Marks, nil, ip)
	if err := l.audit.InsertTx(ctx, tx, entry); err != nil {
		return "", fmt.Errorf("audit delete: %w", err)
	}
	if err := l.students.DeleteTx(ctx, tx, studentID); err != nil {
		return "", fmt.Errorf("delete student: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	l.publishEntry(ctx, entry)
	return "Student deleted successfully", nil
}

func (l *GradeLedger) newEntry(teacher model.Teacher, action, name, subject string, oldMarks, newMarks *int, ip string) model.AuditEntry {
	if ip == "" {
		ip = "127.0.0.1"
	}
	return model.AuditEntry{
		TeacherID:   teacher.ID,
		Action:      action,
		StudentName: name,
		Subject:     subject,
		OldMarks:    oldMarks,
		NewMarks:    newMarks,
		Timestamp:   time.Now().UTC(),
		IPAddress:   ip,
	}
}

func (l *GradeLedger) publishEntry(ctx context.Context, e model.AuditEntry) {
	if l.publish == nil {
		return
	}
	ev := queue.AuditRecordedEvent{
		TeacherID:   e.TeacherID,
		Action:      e.Action,
		StudentName: e.StudentName,
		Subject:     e.Subject,
		OldMarks:    e.OldMarks,
		NewMarks:    e.NewMarks,
		IPAddress:   e.IPAddress,
		RecordedAt:  e.Timestamp.Format(time.RFC3339),
	}
	if err := l.publish(ctx, ev); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}

func validateMarks(marks int) error {
	if marks < 0 || marks > marksCeiling {
		return &ValidationError{Msg: "Marks must be between 0 and 100"}
	}
	return nil
}

func clampField(s string) string {
	s = strings.TrimSpace(s)
	// Truncate by characters, not bytes; a byte slice could split a
	// multi-byte rune and produce invalid UTF-8.
	if r := []rune(s); len(r) > fieldMaxLength {
		s = string(r[:fieldMaxLength])
	}
	return s
}
